package models

import (
	"time"

	"autoship/internal/domain"
)

// DocumentType is the closed set of document kinds a booking can require.
type DocumentType string

const (
	DocTypePassport  DocumentType = "passport"
	DocTypeLicense   DocumentType = "license"
	DocTypeInvoice   DocumentType = "invoice"
	DocTypeInsurance DocumentType = "insurance"
	DocTypeCustoms   DocumentType = "customs"
	DocTypeOther     DocumentType = "other"
)

var ValidDocumentTypes = []DocumentType{
	DocTypePassport,
	DocTypeLicense,
	DocTypeInvoice,
	DocTypeInsurance,
	DocTypeCustoms,
	DocTypeOther,
}

func IsValidDocumentType(t DocumentType) bool {
	for _, v := range ValidDocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Label returns the human-readable name of a document type.
func (t DocumentType) Label() string {
	switch t {
	case DocTypePassport:
		return "Passport"
	case DocTypeLicense:
		return "Driving License"
	case DocTypeInvoice:
		return "Purchase Invoice"
	case DocTypeInsurance:
		return "Insurance Certificate"
	case DocTypeCustoms:
		return "Customs Declaration"
	default:
		return "Other Document"
	}
}

type Document struct {
	ID           int64         `json:"id"`
	BookingID    int64         `json:"booking_id"`
	CustomerID   int64         `json:"customer_id"`
	DocumentType DocumentType  `json:"document_type"`
	Status       domain.Status `json:"status"`
	FilePath     string        `json:"file_path,omitempty"`
	FileName     string        `json:"file_name,omitempty"`
	ExpiryDate   *time.Time    `json:"expiry_date,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	VerifiedBy   int64         `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time    `json:"verified_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsExpired reports whether the document carries a past expiry date.
func (d Document) IsExpired(now time.Time) bool {
	return d.ExpiryDate != nil && now.After(*d.ExpiryDate)
}

// FillsSlot reports whether this document counts as present when resolving
// missing documents. Rejected and requires_revision leave the slot open.
func (d Document) FillsSlot() bool {
	return d.Status == domain.DocumentPending || d.Status == domain.DocumentApproved
}
