package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

// anyInsertArgs matches the full insert argument list without pinning the
// generated id and reference.
func anyInsertArgs() []any {
	args := make([]any, 31)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresCreateRetriesOnCollision(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	collision := &pgconn.PgError{Code: "23505"}
	mock.ExpectQuery("INSERT INTO service_requests").
		WithArgs(anyInsertArgs()...).
		WillReturnError(collision)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO service_requests").
		WithArgs(anyInsertArgs()...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	repo := newPostgresRepositoryWithDB(mock)
	req, err := repo.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(req.Reference) != 8 {
		t.Fatalf("reference %q should be 8 digits", req.Reference)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresGetByReferenceNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM service_requests WHERE reference").
		WithArgs("12345678").
		WillReturnError(pgx.ErrNoRows)

	repo := newPostgresRepositoryWithDB(mock)
	if _, err := repo.GetByReference(context.Background(), "REF-12345678"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestPostgresUpdatePaymentStatusStripsPrefix(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("UPDATE service_requests").
		WithArgs(PaymentPaid, "pi_1", "12345678").
		WillReturnRows(requestRows())

	repo := newPostgresRepositoryWithDB(mock)
	req, err := repo.UpdatePaymentStatus(context.Background(), "REF-12345678", PaymentPaid, "pi_1")
	if err != nil {
		t.Fatalf("UpdatePaymentStatus: %v", err)
	}
	if req.PaymentStatus != PaymentPaid {
		t.Fatalf("payment status = %s", req.PaymentStatus)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func requestRows() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "reference", "client_category", "first_name", "last_name", "email", "phone",
		"company_name", "company_siret", "request_category", "building_type", "project_status",
		"permit_number", "permit_date", "street", "complement", "city", "postal_code", "cadastral_ref",
		"power_kva", "phase_type", "desired_date", "billing_street", "billing_city", "billing_postal_code",
		"architect_name", "architect_phone", "architect_email", "comments",
		"status", "payment_status", "payment_intent_id", "created_at", "updated_at",
	}).AddRow(
		"4f9d6f0e-0000-0000-0000-000000000001", "12345678", "individual", "Jean", "Dupont",
		"jean.dupont@example.fr", "0612345678",
		"", "", "new-connection", "house", "planning",
		"", "", "12 rue de la Paix", "", "Lyon", "69001", "",
		"9", "single", "", "", "", "",
		"", "", "", "",
		StatusNew, PaymentPaid, "pi_1", now, now,
	)
}
