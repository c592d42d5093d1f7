package httpapi

import (
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

type publisherView struct {
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	JobTitle    string `json:"jobTitle"`
	PostalCode  string `json:"postalCode"`
}

type accountView struct {
	ID           string         `json:"id"`
	Role         models.Role    `json:"role"`
	EmailAddress string         `json:"emailAddress"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Name         string         `json:"name"`
	Phone        string         `json:"nomorHP"`
	ProfileImage string         `json:"profileImage"`
	Active       bool           `json:"active"`
	Publisher    *publisherView `json:"publisher,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func viewAccount(a *models.Account) accountView {
	v := accountView{
		ID:           a.ID,
		Role:         a.Role,
		EmailAddress: a.EmailAddress,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Name:         a.DisplayName,
		Phone:        a.Phone,
		ProfileImage: a.ProfileImageRef,
		Active:       a.Active,
		CreatedAt:    a.CreatedAt,
	}
	if p := a.Publisher; p != nil {
		v.Publisher = &publisherView{
			CompanyName: p.CompanyName,
			Address:     p.Address,
			JobTitle:    p.JobTitle,
			PostalCode:  p.PostalCode,
		}
	}
	return v
}

func viewAccounts(list []*models.Account) []accountView {
	out := make([]accountView, 0, len(list))
	for _, a := range list {
		out = append(out, viewAccount(a))
	}
	return out
}

type categoryView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewCategory(c *models.Category) categoryView {
	return categoryView{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func viewCategories(list []*models.Category) []categoryView {
	out := make([]categoryView, 0, len(list))
	for _, c := range list {
		out = append(out, viewCategory(c))
	}
	return out
}

type certificateCategoryView struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
	Slug string  `json:"slug"`
}

type certificateRecipientView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"emailAddress"`
}

type certificateView struct {
	ID            string                   `json:"id"`
	CertificateID string                   `json:"certificateId"`
	FileName      string                   `json:"fileName"`
	File          string                   `json:"file"`
	Category      certificateCategoryView  `json:"category"`
	Recipient     certificateRecipientView `json:"recipient"`
	PublisherID   string                   `json:"publisherId"`
	IsClaimed     bool                     `json:"isClaimed"`
	ClaimedAt     *time.Time               `json:"claimedAt,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
}

func viewCertificate(c *models.Certificate) certificateView {
	return certificateView{
		ID:            c.ID,
		CertificateID: c.CertificateID,
		FileName:      c.FileName,
		File:          c.FileRef,
		Category: certificateCategoryView{
			ID:   c.CategoryID,
			Name: c.CategoryName,
			Slug: c.CategorySlug,
		},
		Recipient: certificateRecipientView{
			ID:    c.RecipientID,
			Name:  c.RecipientName,
			Email: c.RecipientEmail,
		},
		PublisherID: c.PublisherID,
		IsClaimed:   c.IsClaimed,
		ClaimedAt:   c.ClaimedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func viewCertificates(list []*models.Certificate) []certificateView {
	out := make([]certificateView, 0, len(list))
	for _, c := range list {
		out = append(out, viewCertificate(c))
	}
	return out
}
