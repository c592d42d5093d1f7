package httpapi

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/access"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/services"
)

const (
	msgSignedUp = "Success! E-mail berisi OTP akan dikirim"
	msgOTPSent  = "OTP telah dikirim ke e-mail, mohon periksa e-mail Anda"
	msgVerified = "Berhasil verifikasi OTP"
)

type emailRequest struct {
	EmailAddress string `json:"emailAddress"`
}

type verifyRequest struct {
	EmailAddress string `json:"emailAddress"`
	OTP          string `json:"otp"`
}

type adminRequest struct {
	EmailAddress string `json:"emailAddress"`
	Phone        string `json:"nomorHP"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

// parseForm accepts multipart and url-encoded bodies up to the upload limit.
func (a *API) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)

	err := r.ParseMultipartForm(a.cfg.MaxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: malformed form: %v", common.ErrValidation, err)
	}
	return nil
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// profileFromForm picks the profile variant named by the role field.
func profileFromForm(r *http.Request) (services.Profile, error) {
	role := strings.TrimSpace(r.FormValue("role"))

	switch {
	case strings.EqualFold(role, string(models.RolePublisher)):
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			name = models.DisplayName(r.FormValue("firstName"), r.FormValue("lastName"))
		}
		return services.PublisherProfile{
			Name:        name,
			CompanyName: strings.TrimSpace(r.FormValue("companyName")),
			Address:     strings.TrimSpace(r.FormValue("address")),
			JobTitle:    strings.TrimSpace(r.FormValue("jobTitle")),
			PostalCode:  strings.TrimSpace(r.FormValue("postalCode")),
		}, nil
	case strings.EqualFold(role, string(models.RoleCertificateOwner)):
		return services.OwnerProfile{
			FirstName: strings.TrimSpace(r.FormValue("firstName")),
			LastName:  strings.TrimSpace(r.FormValue("lastName")),
		}, nil
	}

	return nil, fmt.Errorf("%w: role must be %s or %s", common.ErrValidation, models.RolePublisher, models.RoleCertificateOwner)
}

func (a *API) storeProfileImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: profileImage must be an image", common.ErrValidation)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	return a.files.Put(ctx, "users", fh.Filename, contentType, f)
}

// discardUpload removes a stored upload that no record ended up referencing.
func (a *API) discardUpload(ctx context.Context, ref string) {
	if err := a.files.Delete(context.WithoutCancel(ctx), ref); err != nil {
		a.logger.Warn(ctx, "orphaned upload left in file store", "ref", ref, "error", err)
	}
}

func (a *API) signUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := a.parseForm(w, r); err != nil {
		a.writeError(w, r, err)
		return
	}

	profile, err := profileFromForm(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := services.RegisterRequest{
		EmailAddress: strings.TrimSpace(r.FormValue("emailAddress")),
		Phone:        strings.TrimSpace(r.FormValue("nomorHP")),
		Profile:      profile,
	}

	// reject bad input before anything is written to the file store
	if err := req.Validate(); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	if fh := formFile(r, "profileImage"); fh != nil {
		ref, err := a.storeProfileImage(ctx, fh)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		req.ProfileImageRef = ref
	}

	account, err := a.accounts.Register(ctx, req)
	if err != nil {
		// a dispatch failure still leaves an account holding the image
		if account == nil && req.ProfileImageRef != "" {
			a.discardUpload(ctx, req.ProfileImageRef)
		}
		a.writeError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, msgSignedUp, viewAccount(account))
}

func (a *API) signIn(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.otp.SignIn(r.Context(), req.EmailAddress); err != nil {
		a.writeError(w, r, err)
		return
	}

	respond(w, http.StatusOK, msgOTPSent, nil)
}

func (a *API) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.otp.Resend(r.Context(), req.EmailAddress); err != nil {
		a.writeError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, msgOTPSent, nil)
}

func (a *API) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	account, token, err := a.otp.Verify(r.Context(), req.EmailAddress, strings.TrimSpace(req.OTP))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.cfg.CookieValidityDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, envelope{
		Status: statusOK,
		Msg:    msgVerified,
		Data:   map[string]string{"id": account.ID},
		Token:  token,
	})
}

func (a *API) signOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, "Berhasil logout", nil)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	id := access.IdentityFrom(r.Context())
	respond(w, http.StatusOK, "Berhasil mengakses data akun", viewAccount(id.Account))
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := a.accounts.ListActive(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Retrieved all users' data successfully", viewAccounts(list))
}

func (a *API) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	account, err := a.accounts.RegisterAdmin(r.Context(), services.RegisterRequest{
		EmailAddress: req.EmailAddress,
		Phone:        req.Phone,
		Profile:      services.AdminProfile{FirstName: req.FirstName, LastName: req.LastName},
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, msgSignedUp, viewAccount(account))
}
