package requests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows and pages admin request listings.
type ListFilter struct {
	Search        string
	Status        RequestStatus
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

// Repository defines the interface for service request storage
type Repository interface {
	Create(ctx context.Context, in *CreateServiceRequestInput) (*ServiceRequest, error)
	GetByReference(ctx context.Context, reference string) (*ServiceRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*ServiceRequest, int, error)
	UpdateStatus(ctx context.Context, reference string, status RequestStatus) (*ServiceRequest, error)
	UpdatePaymentStatus(ctx context.Context, reference string, status PaymentStatus, intentID string) (*ServiceRequest, error)
}

// InMemoryRepository implements Repository with in-memory storage. It backs
// development mode and tests; production uses PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	requests map[string]*ServiceRequest // keyed by raw reference digits
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		requests: make(map[string]*ServiceRequest),
	}
}

// Create stores a new request and assigns its reference.
func (r *InMemoryRepository) Create(ctx context.Context, in *CreateServiceRequestInput) (*ServiceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var reference string
	for {
		reference = NewReference()
		if _, exists := r.requests[StripReferencePrefix(reference)]; !exists {
			break
		}
	}

	now := time.Now().UTC()
	req := &ServiceRequest{
		ID:              uuid.New().String(),
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
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.requests[StripReferencePrefix(reference)] = req
	return req, nil
}

// GetByReference retrieves a request by reference; bare digits and the
// current or legacy prefix all resolve to the same entry.
func (r *InMemoryRepository) GetByReference(ctx context.Context, reference string) (*ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[StripReferencePrefix(reference)]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

// List returns requests matching the filter, newest first, plus the total count.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*ServiceRequest, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*ServiceRequest, 0, len(r.requests))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && req.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if search != "" && !matchesSearch(req, search) {
			continue
		}
		cp := *req
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], total, nil
}

func matchesSearch(req *ServiceRequest, search string) bool {
	for _, field := range []string{req.Reference, req.FirstName, req.LastName, req.Email, req.Phone, req.City, req.PostalCode, req.CompanyName} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// UpdateStatus changes the back-office status of a request.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, reference string, status RequestStatus) (*ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[StripReferencePrefix(reference)]
	if !ok {
		return nil, ErrRequestNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	cp := *req
	return &cp, nil
}

// UpdatePaymentStatus records the payment outcome for a request.
func (r *InMemoryRepository) UpdatePaymentStatus(ctx context.Context, reference string, status PaymentStatus, intentID string) (*ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[StripReferencePrefix(reference)]
	if !ok {
		return nil, ErrRequestNotFound
	}
	req.PaymentStatus = status
	if intentID != "" {
		req.PaymentIntentID = intentID
	}
	req.UpdatedAt = time.Now().UTC()
	cp := *req
	return &cp, nil
}
