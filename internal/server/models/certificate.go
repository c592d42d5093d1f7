package models

import "time"

// Certificate is an issued artifact. Category and recipient fields are
// snapshots taken at issuance and never change afterwards; CategoryID
// becomes nil when the category is deleted.
type Certificate struct {
	ID            string
	CertificateID string
	FileRef       string
	FileName      string

	CategoryID   *string
	CategoryName string
	CategorySlug string

	RecipientID    string
	RecipientName  string
	RecipientEmail string

	PublisherID string

	IsClaimed bool
	ClaimedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicCertificate is what anonymous verification exposes.
type PublicCertificate struct {
	CertificateID string    `json:"certificateId"`
	FileName      string    `json:"fileName"`
	CategoryName  string    `json:"categoryName"`
	CategorySlug  string    `json:"categorySlug"`
	RecipientName string    `json:"recipientName"`
	IsClaimed     bool      `json:"isClaimed"`
	IssuedAt      time.Time `json:"issuedAt"`
	FileURL       string    `json:"fileUrl,omitempty"`
}

// Public projects c onto the publicly disclosable fields.
func (c *Certificate) Public() PublicCertificate {
	return PublicCertificate{
		CertificateID: c.CertificateID,
		FileName:      c.FileName,
		CategoryName:  c.CategoryName,
		CategorySlug:  c.CategorySlug,
		RecipientName: c.RecipientName,
		IsClaimed:     c.IsClaimed,
		IssuedAt:      c.CreatedAt,
	}
}
