package requests

import (
	"strings"
	"time"
)

// RequestStatus tracks where a service request sits in the back-office pipeline.
type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusInReview   RequestStatus = "in_review"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// IsValid checks if the status is a known RequestStatus value.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusInReview, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the payment lifecycle of a service request.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// IsValid checks if the status is a known PaymentStatus value.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	default:
		return false
	}
}

// ServiceRequest is a submitted raccordement request, correlated with its
// payment through the server-assigned reference.
type ServiceRequest struct {
	ID              string        `json:"id"`
	Reference       string        `json:"referenceNumber"`
	ClientCategory  string        `json:"clientCategory"`
	FirstName       string        `json:"firstName"`
	LastName        string        `json:"lastName"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	CompanyName     string        `json:"companyName,omitempty"`
	CompanySIRET    string        `json:"companySiret,omitempty"`
	RequestCategory string        `json:"requestCategory"`
	BuildingType    string        `json:"buildingType"`
	ProjectStatus   string        `json:"projectStatus"`
	PermitNumber    string        `json:"permitNumber,omitempty"`
	PermitDate      string        `json:"permitDate,omitempty"`
	Street          string        `json:"street"`
	Complement      string        `json:"complement,omitempty"`
	City            string        `json:"city"`
	PostalCode      string        `json:"postalCode"`
	CadastralRef    string        `json:"cadastralRef,omitempty"`
	PowerKVA        string        `json:"powerKva"`
	PhaseType       string        `json:"phaseType"`
	DesiredDate     string        `json:"desiredDate,omitempty"`
	BillingStreet   string        `json:"billingStreet,omitempty"`
	BillingCity     string        `json:"billingCity,omitempty"`
	BillingPostal   string        `json:"billingPostalCode,omitempty"`
	ArchitectName   string        `json:"architectName,omitempty"`
	ArchitectPhone  string        `json:"architectPhone,omitempty"`
	ArchitectEmail  string        `json:"architectEmail,omitempty"`
	Comments        string        `json:"comments,omitempty"`
	Status          RequestStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// FullName returns the applicant name used in confirmation redirects.
func (r *ServiceRequest) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// CreateServiceRequestInput carries the validated wizard snapshot into the store.
type CreateServiceRequestInput struct {
	ClientCategory  string `json:"clientCategory"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CompanyName     string `json:"companyName,omitempty"`
	CompanySIRET    string `json:"companySiret,omitempty"`
	RequestCategory string `json:"requestCategory"`
	BuildingType    string `json:"buildingType"`
	ProjectStatus   string `json:"projectStatus"`
	PermitNumber    string `json:"permitNumber,omitempty"`
	PermitDate      string `json:"permitDate,omitempty"`
	Street          string `json:"street"`
	Complement      string `json:"complement,omitempty"`
	City            string `json:"city"`
	PostalCode      string `json:"postalCode"`
	CadastralRef    string `json:"cadastralRef,omitempty"`
	PowerKVA        string `json:"powerKva"`
	PhaseType       string `json:"phaseType"`
	DesiredDate     string `json:"desiredDate,omitempty"`
	BillingStreet   string `json:"billingStreet,omitempty"`
	BillingCity     string `json:"billingCity,omitempty"`
	BillingPostal   string `json:"billingPostalCode,omitempty"`
	ArchitectName   string `json:"architectName,omitempty"`
	ArchitectPhone  string `json:"architectPhone,omitempty"`
	ArchitectEmail  string `json:"architectEmail,omitempty"`
	Comments        string `json:"comments,omitempty"`
}

// Validate applies the minimal server-side guard. The wizard validates the
// full schema before submitting; this protects direct API callers.
func (in *CreateServiceRequestInput) Validate() error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		return ErrMissingContact
	}
	if strings.TrimSpace(in.RequestCategory) == "" {
		return ErrMissingCategory
	}
	return nil
}
