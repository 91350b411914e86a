package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/notify"
	"autoship/internal/repositories"
	"autoship/internal/utils"
)

// Origin countries whose routes need a customs declaration on file.
var customsOrigins = map[string]bool{
	"japan": true,
	"uk":    true,
	"uae":   true,
}

// RequiredDocumentTypes resolves the document set a route demands. Passport,
// license and invoice always; insurance unless the vehicle ships out of
// Uganda; customs for the origins that require a declaration.
func RequiredDocumentTypes(originCountry string) []models.DocumentType {
	required := []models.DocumentType{
		models.DocTypePassport,
		models.DocTypeLicense,
		models.DocTypeInvoice,
	}
	origin := utils.NormalizeCountry(originCountry)
	if origin != "uganda" {
		required = append(required, models.DocTypeInsurance)
	}
	if customsOrigins[origin] {
		required = append(required, models.DocTypeCustoms)
	}
	return required
}

// DocumentService manages the paperwork attached to a booking: uploads,
// verification, the missing-document resolver and the expiry sweep.
type DocumentService struct {
	DB           *sql.DB
	DocumentRepo repositories.DocumentRepository
	BookingRepo  repositories.BookingRepository
	RouteRepo    repositories.RouteRepository
	CustomerRepo repositories.CustomerRepository
	Notifier     notify.Notifier
	RequestID    string
	Now          func() time.Time
}

func (s DocumentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

type UploadDocumentInput struct {
	BookingID    int64
	DocumentType models.DocumentType
	FilePath     string
	FileName     string
	ExpiryDate   *time.Time
	Notes        string
}

// Upload attaches a document to a booking. A type whose slot is already
// filled (pending or approved) cannot be uploaded again; rejected and
// requires_revision leave the slot open for a replacement.
func (s DocumentService) Upload(ctx context.Context, in UploadDocumentInput) (models.Document, error) {
	if !models.IsValidDocumentType(in.DocumentType) {
		return models.Document{}, domain.ValidationError{Field: "document_type", Msg: "unknown document type"}
	}
	if in.FilePath == "" {
		return models.Document{}, domain.ValidationError{Field: "file_path", Msg: "required"}
	}
	now := s.now()
	if in.ExpiryDate != nil && !in.ExpiryDate.After(now) {
		return models.Document{}, domain.ValidationError{Field: "expiry_date", Msg: "must be in the future"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Document{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	booking, err := s.BookingRepo.GetByIDForUpdate(ctx, tx, in.BookingID)
	if err != nil {
		return models.Document{}, err
	}
	present, err := s.DocumentRepo.PresentTypes(ctx, tx, in.BookingID)
	if err != nil {
		return models.Document{}, domain.InternalError{Msg: "check document slots", Err: err}
	}
	if in.DocumentType != models.DocTypeOther && present[in.DocumentType] {
		return models.Document{}, domain.ConflictError{
			Msg: fmt.Sprintf("%s is already on file for this booking", in.DocumentType.Label()),
		}
	}

	doc := models.Document{
		BookingID:    in.BookingID,
		CustomerID:   booking.CustomerID,
		DocumentType: in.DocumentType,
		Status:       domain.DocumentPending,
		FilePath:     in.FilePath,
		FileName:     in.FileName,
		ExpiryDate:   in.ExpiryDate,
		Notes:        in.Notes,
	}
	doc.ID, err = s.DocumentRepo.Create(ctx, tx, doc)
	if err != nil {
		return models.Document{}, domain.InternalError{Msg: "create document", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Document{}, domain.InternalError{Msg: "commit", Err: err}
	}

	utils.LogEvent(s.RequestID, "document", "upload",
		fmt.Sprintf("document_id=%d booking_id=%d type=%s", doc.ID, in.BookingID, in.DocumentType))
	return doc, nil
}

// Verify moves a document through review. Approved documents only leave
// approved through the expiry sweep, never through manual verification.
func (s DocumentService) Verify(ctx context.Context, documentID int64, to domain.Status, actorID int64, notes string) (models.Document, error) {
	if to == domain.DocumentRejected && notes == "" {
		return models.Document{}, domain.ValidationError{Field: "notes", Msg: "required when rejecting"}
	}

	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Document{}, domain.InternalError{Msg: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := s.DocumentRepo.GetByIDForUpdate(ctx, tx, documentID)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Status == domain.DocumentApproved {
		return models.Document{}, domain.ConflictError{Msg: "approved documents are immutable outside the expiry sweep"}
	}
	if err := domain.CheckTransition(domain.EntityDocument, doc.Status, to); err != nil {
		return models.Document{}, err
	}

	var verifiedAt *time.Time
	if to == domain.DocumentApproved {
		verifiedAt = &now
	}
	if err := s.DocumentRepo.UpdateStatus(ctx, tx, documentID, to, actorID, verifiedAt, notes); err != nil {
		return models.Document{}, domain.InternalError{Msg: "update document status", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Document{}, domain.InternalError{Msg: "commit", Err: err}
	}

	doc.Status = to
	if actorID > 0 {
		doc.VerifiedBy = actorID
	}
	if verifiedAt != nil {
		doc.VerifiedAt = verifiedAt
	}
	if notes != "" {
		doc.Notes = notes
	}

	utils.LogEvent(s.RequestID, "document", "verify",
		fmt.Sprintf("document_id=%d status=%s actor_id=%d", documentID, to, actorID))

	if to == domain.DocumentApproved || to == domain.DocumentRejected {
		if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, doc.CustomerID); err == nil {
			s.Notifier.Send(notify.EventDocumentVerified, customer.Email, map[string]any{
				"document_type": string(doc.DocumentType),
				"status":        string(to),
				"notes":         notes,
			})
		}
	}
	return doc, nil
}

// MissingDocuments diffs the route's required set against what is on file.
func (s DocumentService) MissingDocuments(ctx context.Context, bookingID int64) ([]models.DocumentType, error) {
	booking, err := s.BookingRepo.GetByID(ctx, s.DB, bookingID)
	if err != nil {
		return nil, err
	}
	route, err := s.RouteRepo.GetByID(ctx, s.DB, booking.RouteID)
	if err != nil {
		return nil, err
	}
	present, err := s.DocumentRepo.PresentTypes(ctx, s.DB, bookingID)
	if err != nil {
		return nil, domain.InternalError{Msg: "check document slots", Err: err}
	}

	missing := []models.DocumentType{}
	for _, t := range RequiredDocumentTypes(route.OriginCountry) {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

// RequestMissing notifies the customer about unfilled document slots.
func (s DocumentService) RequestMissing(ctx context.Context, bookingID int64) ([]models.DocumentType, error) {
	missing, err := s.MissingDocuments(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return missing, nil
	}

	booking, err := s.BookingRepo.GetByID(ctx, s.DB, bookingID)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(missing))
	for _, t := range missing {
		labels = append(labels, t.Label())
	}
	if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, booking.CustomerID); err == nil {
		s.Notifier.Send(notify.EventDocumentsRequested, customer.Email, map[string]any{
			"booking_reference": booking.BookingReference,
			"missing":           labels,
		})
	}
	utils.LogEvent(s.RequestID, "document", "request_missing",
		fmt.Sprintf("booking_id=%d missing=%d", bookingID, len(missing)))
	return missing, nil
}

// ProcessExpiredDocuments is the expiry sweep: approved documents past their
// expiry date drop to requires_revision so the slot reopens.
func (s DocumentService) ProcessExpiredDocuments(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.DocumentRepo.ListExpiredApproved(ctx, s.DB, now)
	if err != nil {
		return 0, domain.InternalError{Msg: "list expired documents", Err: err}
	}

	revoked := 0
	for _, candidate := range candidates {
		err := func() error {
			tx, err := s.DB.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			doc, err := s.DocumentRepo.GetByIDForUpdate(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if doc.Status != domain.DocumentApproved || !doc.IsExpired(now) {
				return nil
			}
			if err := s.DocumentRepo.UpdateStatus(ctx, tx, doc.ID, domain.DocumentRequiresRevision, 0, nil,
				fmt.Sprintf("expired on %s", utils.FormatDate(*doc.ExpiryDate))); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			revoked++
			s.Notifier.Send(notify.EventDocumentExpired, "", map[string]any{
				"document_id":   doc.ID,
				"booking_id":    doc.BookingID,
				"document_type": string(doc.DocumentType),
			})
			return nil
		}()
		if err != nil {
			utils.LogEvent(s.RequestID, "document", "expire_sweep",
				fmt.Sprintf("document_id=%d error=%v", candidate.ID, err))
		}
	}

	utils.LogEvent(s.RequestID, "document", "expire_sweep", fmt.Sprintf("revoked=%d", revoked))
	return revoked, nil
}

func (s DocumentService) Get(ctx context.Context, documentID int64) (models.Document, error) {
	return s.DocumentRepo.GetByID(ctx, s.DB, documentID)
}

func (s DocumentService) ListByBooking(ctx context.Context, bookingID int64) ([]models.Document, error) {
	if _, err := s.BookingRepo.GetByID(ctx, s.DB, bookingID); err != nil {
		return nil, err
	}
	return s.DocumentRepo.ListByBooking(ctx, s.DB, bookingID)
}
