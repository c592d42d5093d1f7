package httpapi

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/access"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/services"
	"github.com/go-chi/chi/v5"
)

var certificateExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

func (a *API) publishCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := a.parseForm(w, r); err != nil {
		a.writeError(w, r, err)
		return
	}

	fh := formFile(r, "file")
	if fh == nil {
		a.writeError(w, r, fmt.Errorf("%w: Mohon upload file sertifikat", common.ErrValidation))
		return
	}
	if !certificateExtensions[strings.ToLower(path.Ext(fh.Filename))] {
		a.writeError(w, r, fmt.Errorf("%w: file must be one of .jpg .jpeg .png .pdf", common.ErrValidation))
		return
	}

	req := services.PublishRequest{
		FileName:       strings.TrimSpace(r.FormValue("fileName")),
		Category:       strings.TrimSpace(r.FormValue("category")),
		RecipientEmail: strings.TrimSpace(r.FormValue("recipientEmail")),
		PublisherID:    access.IdentityFrom(ctx).AccountID,
	}
	if req.FileName == "" {
		req.FileName = fh.Filename
	}

	// validate everything but the reference before storing the upload
	probe := req
	probe.FileRef = fh.Filename
	if err := probe.Validate(); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		a.writeError(w, r, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()

	req.FileRef, err = a.files.Put(ctx, "certificates", fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("storing upload: %w", err))
		return
	}

	cert, err := a.ledger.Publish(ctx, req)
	if err != nil {
		a.discardUpload(ctx, req.FileRef)
		a.writeError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, "Berhasil menambahkan data sertifikat", viewCertificate(cert))
}

func (a *API) listCertificates(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("category"))
	if slug == "" {
		a.writeError(w, r, fmt.Errorf("%w: category: cannot be blank", common.ErrValidation))
		return
	}

	list, err := a.ledger.ListByCategorySlug(r.Context(), slug)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Berhasil mengakses data sertifikat", viewCertificates(list))
}

func (a *API) getCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := a.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Berhasil mengakses data sertifikat", viewCertificate(cert))
}

func (a *API) myCertificates(w http.ResponseWriter, r *http.Request) {
	id := access.IdentityFrom(r.Context())

	list, err := a.ledger.ListByRecipient(r.Context(), id.AccountID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Berhasil mengakses data sertifikat", viewCertificates(list))
}

// claimCertificate takes the public certificateId, not the internal id.
func (a *API) claimCertificate(w http.ResponseWriter, r *http.Request) {
	id := access.IdentityFrom(r.Context())

	cert, err := a.ledger.Claim(r.Context(), chi.URLParam(r, "id"), id.AccountID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Sertifikat berhasil diklaim", viewCertificate(cert))
}

func (a *API) verifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certificateID := chi.URLParam(r, "certificateId")

	public, err := a.ledger.VerifyPublic(ctx, certificateID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if id := access.IdentityFrom(ctx); id != nil {
		a.logger.Debug(ctx, "certificate verified", "certificate", certificateID, "viewer", id.AccountID)
	}

	respond(w, http.StatusOK, "Sertifikat valid", public)
}
