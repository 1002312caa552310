package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores service requests in the relational database.
type PostgresRepository struct {
	db dbtx
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("requests: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db dbtx) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const requestColumns = `
	id, reference, client_category, first_name, last_name, email, phone,
	company_name, company_siret, request_category, building_type, project_status,
	permit_number, permit_date, street, complement, city, postal_code, cadastral_ref,
	power_kva, phase_type, desired_date, billing_street, billing_city, billing_postal_code,
	architect_name, architect_phone, architect_email, comments,
	status, payment_status, payment_intent_id, created_at, updated_at
`

// Create inserts a new row, retrying reference generation on collision.
func (r *PostgresRepository) Create(ctx context.Context, in *CreateServiceRequestInput) (*ServiceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO service_requests (
			id, reference, client_category, first_name, last_name, email, phone,
			company_name, company_siret, request_category, building_type, project_status,
			permit_number, permit_date, street, complement, city, postal_code, cadastral_ref,
			power_kva, phase_type, desired_date, billing_street, billing_city, billing_postal_code,
			architect_name, architect_phone, architect_email, comments, status, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
		RETURNING created_at, updated_at
	`

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		id := uuid.New()
		reference := NewReference()
		var createdAt, updatedAt time.Time
		err := r.db.QueryRow(ctx, query,
			id,
			reference,
			in.ClientCategory,
			in.FirstName,
			in.LastName,
			in.Email,
			in.Phone,
			in.CompanyName,
			in.CompanySIRET,
			in.RequestCategory,
			in.BuildingType,
			in.ProjectStatus,
			in.PermitNumber,
			in.PermitDate,
			in.Street,
			in.Complement,
			in.City,
			in.PostalCode,
			in.CadastralRef,
			in.PowerKVA,
			in.PhaseType,
			in.DesiredDate,
			in.BillingStreet,
			in.BillingCity,
			in.BillingPostal,
			in.ArchitectName,
			in.ArchitectPhone,
			in.ArchitectEmail,
			in.Comments,
			StatusNew,
			PaymentPending,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("requests: insert failed: %w", err)
		}

		req := &ServiceRequest{
			ID:              id.String(),
			Reference:       reference,
			ClientCategory:  in.ClientCategory,
			FirstName:       in.FirstName,
			LastName:        in.LastName,
			Email:           in.Email,
			Phone:           in.Phone,
			CompanyName:     in.CompanyName,
			CompanySIRET:    in.CompanySIRET,
			RequestCategory: in.RequestCategory,
			BuildingType:    in.BuildingType,
			ProjectStatus:   in.ProjectStatus,
			PermitNumber:    in.PermitNumber,
			PermitDate:      in.PermitDate,
			Street:          in.Street,
			Complement:      in.Complement,
			City:            in.City,
			PostalCode:      in.PostalCode,
			CadastralRef:    in.CadastralRef,
			PowerKVA:        in.PowerKVA,
			PhaseType:       in.PhaseType,
			DesiredDate:     in.DesiredDate,
			BillingStreet:   in.BillingStreet,
			BillingCity:     in.BillingCity,
			BillingPostal:   in.BillingPostal,
			ArchitectName:   in.ArchitectName,
			ArchitectPhone:  in.ArchitectPhone,
			ArchitectEmail:  in.ArchitectEmail,
			Comments:        in.Comments,
			Status:          StatusNew,
			PaymentStatus:   PaymentPending,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		}
		return req, nil
	}
	return nil, fmt.Errorf("requests: reference collision persisted: %w", lastErr)
}

// GetByReference fetches a request by reference. The stored reference is the
// raw digits; prefixed lookups are normalized first.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (*ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE reference = $1`
	row := r.db.QueryRow(ctx, query, StripReferencePrefix(reference))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("requests: select failed: %w", err)
	}
	return req, nil
}

// List returns a filtered page of requests plus the total match count.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*ServiceRequest, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	idx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.PaymentStatus != "" {
		where = append(where, fmt.Sprintf("payment_status = $%d", idx))
		args = append(args, filter.PaymentStatus)
		idx++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, fmt.Sprintf(
			"(reference ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR city ILIKE $%d OR postal_code ILIKE $%d OR company_name ILIKE $%d)",
			idx, idx, idx, idx, idx, idx, idx, idx))
		args = append(args, "%"+search+"%")
		idx++
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM service_requests WHERE ` + clause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("requests: count failed: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE ` + clause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("requests: list failed: %w", err)
	}
	defer rows.Close()

	var out []*ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("requests: scan failed: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("requests: rows failed: %w", err)
	}
	return out, total, nil
}

// UpdateStatus changes the back-office status of a request.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, reference string, status RequestStatus) (*ServiceRequest, error) {
	query := `
		UPDATE service_requests
		SET status = $1, updated_at = NOW()
		WHERE reference = $2
		RETURNING ` + requestColumns
	row := r.db.QueryRow(ctx, query, status, StripReferencePrefix(reference))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("requests: status update failed: %w", err)
	}
	return req, nil
}

// UpdatePaymentStatus records the payment outcome for a request.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, reference string, status PaymentStatus, intentID string) (*ServiceRequest, error) {
	query := `
		UPDATE service_requests
		SET payment_status = $1,
		    payment_intent_id = COALESCE(NULLIF($2, ''), payment_intent_id),
		    updated_at = NOW()
		WHERE reference = $3
		RETURNING ` + requestColumns
	row := r.db.QueryRow(ctx, query, status, intentID, StripReferencePrefix(reference))
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("requests: payment status update failed: %w", err)
	}
	return req, nil
}

func scanRequest(row pgx.Row) (*ServiceRequest, error) {
	var req ServiceRequest
	if err := row.Scan(
		&req.ID,
		&req.Reference,
		&req.ClientCategory,
		&req.FirstName,
		&req.LastName,
		&req.Email,
		&req.Phone,
		&req.CompanyName,
		&req.CompanySIRET,
		&req.RequestCategory,
		&req.BuildingType,
		&req.ProjectStatus,
		&req.PermitNumber,
		&req.PermitDate,
		&req.Street,
		&req.Complement,
		&req.City,
		&req.PostalCode,
		&req.CadastralRef,
		&req.PowerKVA,
		&req.PhaseType,
		&req.DesiredDate,
		&req.BillingStreet,
		&req.BillingCity,
		&req.BillingPostal,
		&req.ArchitectName,
		&req.ArchitectPhone,
		&req.ArchitectEmail,
		&req.Comments,
		&req.Status,
		&req.PaymentStatus,
		&req.PaymentIntentID,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
