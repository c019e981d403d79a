package validator

import (
	"errors"
	"regexp"
	"strings"
)

// Identity document types accepted at the ticket office
const (
	DocumentPassport           = "PASSPORT"
	DocumentIDCard             = "ID_CARD"
	DocumentForeignPassport    = "FOREIGN_PASSPORT"
	DocumentBirthCertificate   = "BIRTH_CERTIFICATE"
	DocumentStudentCard        = "STUDENT_CARD"
	DocumentPensionCertificate = "PENSION_CERTIFICATE"
)

var (
	// ErrUnknownDocumentType indicates the document type is not accepted
	ErrUnknownDocumentType = errors.New("unknown document type")

	// ErrInvalidDocumentNumber indicates the number has bad characters or length
	ErrInvalidDocumentNumber = errors.New("document number must be 4 to 20 letters or digits")
)

var documentTypes = map[string]struct{}{
	DocumentPassport:           {},
	DocumentIDCard:             {},
	DocumentForeignPassport:    {},
	DocumentBirthCertificate:   {},
	DocumentStudentCard:        {},
	DocumentPensionCertificate: {},
}

var documentNumberRegex = regexp.MustCompile(`^[\p{Lu}\d]{4,20}$`)

// NormalizeDocument canonicalises a document type and number so the same
// physical document always maps to the same passenger record.
// Type is upper-cased; the number is upper-cased with spaces and dashes removed.
func NormalizeDocument(docType, number string) (string, string, error) {
	docType = strings.ToUpper(strings.TrimSpace(docType))
	if _, ok := documentTypes[docType]; !ok {
		return "", "", ErrUnknownDocumentType
	}

	number = strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(number))
	if !documentNumberRegex.MatchString(number) {
		return "", "", ErrInvalidDocumentNumber
	}
	return docType, number, nil
}
