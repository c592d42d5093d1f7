package services

import "github.com/chelseaoktaviany/sertifica-app-backend/internal/common"

// CertificateIDLength is the length of the public certificate identifier.
const CertificateIDLength = 64

// NewCertificateID draws a fresh public identifier from the 62-symbol
// alphanumeric alphabet.
func NewCertificateID() (string, error) {
	return common.RandomString(common.AlphaNumeric, CertificateIDLength)
}
