// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// Account is an identity plus its profile.
type Account struct {
	ID           string
	Role         Role
	EmailAddress string
	FirstName    string
	LastName     string
	// DisplayName is computed at write time with DisplayName(first, last).
	DisplayName string
	Phone       string
	Active      bool

	// OTPCode holds the digest of the outstanding one-time code, nil when
	// no challenge is pending. OTPExpiresAt is set together with it.
	OTPCode      *string
	OTPExpiresAt *time.Time

	ProfileImageRef string
	Publisher       *PublisherDetails

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublisherDetails are the company fields only publishers carry.
type PublisherDetails struct {
	CompanyName string
	Address     string
	JobTitle    string
	PostalCode  string
}

// HasPendingOTP reports whether a challenge is outstanding.
func (a *Account) HasPendingOTP() bool {
	return a.OTPCode != nil && a.OTPExpiresAt != nil
}

// DisplayName joins first and last name with a single space, dropping
// whichever part is empty.
func DisplayName(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// SplitName is the inverse used when a client submits a single "name"
// field: the first word becomes the first name, the rest the last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// NormalizeEmail trims and lower-cases an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
