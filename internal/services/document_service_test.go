package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoship/internal/domain/models"
	"autoship/internal/notify"
)

func TestRequiredDocumentTypes(t *testing.T) {
	cases := []struct {
		origin string
		want   []models.DocumentType
	}{
		{"japan", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
			models.DocTypeInsurance, models.DocTypeCustoms,
		}},
		{"uk", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
			models.DocTypeInsurance, models.DocTypeCustoms,
		}},
		{"uae", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
			models.DocTypeInsurance, models.DocTypeCustoms,
		}},
		{"germany", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
			models.DocTypeInsurance,
		}},
		{"uganda", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
		}},
		{"  Japan ", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
			models.DocTypeInsurance, models.DocTypeCustoms,
		}},
		{"", []models.DocumentType{
			models.DocTypePassport, models.DocTypeLicense, models.DocTypeInvoice,
			models.DocTypeInsurance,
		}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RequiredDocumentTypes(tc.origin), "origin %q", tc.origin)
	}
}

func TestMissingDocumentsDiffsAgainstPresentSlots(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	routeRows := sqlmock.NewRows([]string{
		"id", "origin_country", "origin_city", "destination_country", "destination_city",
		"base_price", "transit_days", "active", "created_at", "updated_at",
	}).AddRow(1, "japan", "Yokohama", "uganda", "Kampala",
		350000, 45, true, testClock(), testClock())

	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 450000, 0, "confirmed"))
	mock.ExpectQuery("FROM routes WHERE id=").
		WithArgs(int64(1)).
		WillReturnRows(routeRows)
	mock.ExpectQuery("SELECT DISTINCT document_type FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"document_type"}).
			AddRow("passport").AddRow("invoice").AddRow("insurance"))

	svc := DocumentService{DB: db, Now: testClock}
	missing, err := svc.MissingDocuments(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, []models.DocumentType{models.DocTypeLicense, models.DocTypeCustoms}, missing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func documentRow(id int64, docType, status string, expiry *time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "customer_id", "document_type", "status",
		"file_path", "file_name", "expiry_date", "notes", "verified_by",
		"verified_at", "created_at", "updated_at",
	}).AddRow(id, 9, 3, docType, status,
		"/uploads/doc.pdf", "doc.pdf", expiry, "", 0,
		nil, testClock(), testClock())
}

func TestProcessExpiredDocumentsSkipsRacedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expired := testClock().AddDate(0, 0, -2)
	candidates := sqlmock.NewRows([]string{
		"id", "booking_id", "customer_id", "document_type", "status",
		"file_path", "file_name", "expiry_date", "notes", "verified_by",
		"verified_at", "created_at", "updated_at",
	}).
		AddRow(1, 9, 3, "insurance", "approved", "/uploads/a.pdf", "a.pdf", expired, "", 0, nil, testClock(), testClock()).
		AddRow(2, 9, 3, "customs", "approved", "/uploads/b.pdf", "b.pdf", expired, "", 0, nil, testClock(), testClock())

	mock.ExpectQuery("FROM documents\\s+WHERE status=. AND expiry_date IS NOT NULL").
		WillReturnRows(candidates)

	// first candidate still qualifies under the lock
	mock.ExpectBegin()
	mock.ExpectQuery("FROM documents WHERE id=. FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(documentRow(1, "insurance", "approved", &expired))
	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// second candidate was revoked by a concurrent sweep
	mock.ExpectBegin()
	mock.ExpectQuery("FROM documents WHERE id=. FOR UPDATE").
		WithArgs(int64(2)).
		WillReturnRows(documentRow(2, "customs", "requires_revision", &expired))
	mock.ExpectRollback()

	svc := DocumentService{DB: db, Notifier: notify.Discard{}, Now: testClock}
	revoked, err := svc.ProcessExpiredDocuments(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, revoked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingDocumentsCompleteSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	routeRows := sqlmock.NewRows([]string{
		"id", "origin_country", "origin_city", "destination_country", "destination_city",
		"base_price", "transit_days", "active", "created_at", "updated_at",
	}).AddRow(1, "uganda", "Kampala", "kenya", "Nairobi",
		120000, 7, true, testClock(), testClock())

	mock.ExpectQuery("FROM bookings WHERE id=. AND deleted_at IS NULL").
		WithArgs(int64(9)).
		WillReturnRows(bookingRow(9, 3, 450000, 0, "confirmed"))
	mock.ExpectQuery("FROM routes WHERE id=").
		WithArgs(int64(1)).
		WillReturnRows(routeRows)
	mock.ExpectQuery("SELECT DISTINCT document_type FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"document_type"}).
			AddRow("passport").AddRow("license").AddRow("invoice"))

	svc := DocumentService{DB: db, Now: testClock}
	missing, err := svc.MissingDocuments(context.Background(), 9)
	require.NoError(t, err)

	assert.Empty(t, missing)
	assert.NotNil(t, missing)
	require.NoError(t, mock.ExpectationsWereMet())
}
