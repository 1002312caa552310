package wizard

import (
	"strings"
	"time"

	"github.com/jmercadier/raccordement-platform/internal/requests"
)

// Snapshot is an immutable copy of a validated draft taken at submit time.
// Hidden field groups are stripped here, not in the draft: toggling a group
// off and on again must round-trip the values the user already entered.
type Snapshot struct {
	ClientCategory  ClientCategory  `json:"clientCategory"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	CompanyName     string          `json:"companyName,omitempty"`
	CompanySIRET    string          `json:"companySiret,omitempty"`
	RequestCategory RequestCategory `json:"requestCategory"`
	BuildingType    BuildingType    `json:"buildingType"`
	ProjectStatus   ProjectStatus   `json:"projectStatus"`
	PermitNumber    string          `json:"permitNumber,omitempty"`
	PermitDate      string          `json:"permitDate,omitempty"`
	Street          string          `json:"street"`
	Complement      string          `json:"complement,omitempty"`
	City            string          `json:"city"`
	PostalCode      string          `json:"postalCode"`
	CadastralRef    string          `json:"cadastralRef,omitempty"`
	PowerKVA        string          `json:"powerKva"`
	PhaseType       PhaseType       `json:"phaseType"`
	DesiredDate     string          `json:"desiredDate,omitempty"`
	BillingStreet   string          `json:"billingStreet,omitempty"`
	BillingCity     string          `json:"billingCity,omitempty"`
	BillingPostal   string          `json:"billingPostalCode,omitempty"`
	ArchitectName   string          `json:"architectName,omitempty"`
	ArchitectPhone  string          `json:"architectPhone,omitempty"`
	ArchitectEmail  string          `json:"architectEmail,omitempty"`
	Comments        string          `json:"comments,omitempty"`
	TakenAt         time.Time       `json:"takenAt"`
}

// NewSnapshot copies the draft, keeping only the field groups visible at the
// time of capture.
func NewSnapshot(d *Draft) *Snapshot {
	visible := VisibleGroups(d)
	s := &Snapshot{
		ClientCategory:  d.ClientCategory,
		FirstName:       strings.TrimSpace(d.FirstName),
		LastName:        strings.TrimSpace(d.LastName),
		Email:           strings.TrimSpace(d.Email),
		Phone:           strings.TrimSpace(d.Phone),
		RequestCategory: d.RequestCategory,
		BuildingType:    d.BuildingType,
		ProjectStatus:   d.ProjectStatus,
		Street:          strings.TrimSpace(d.Street),
		Complement:      strings.TrimSpace(d.Complement),
		City:            strings.TrimSpace(d.City),
		PostalCode:      strings.TrimSpace(d.PostalCode),
		CadastralRef:    strings.TrimSpace(d.CadastralRef),
		PowerKVA:        d.PowerKVA,
		PhaseType:       d.PhaseType,
		DesiredDate:     d.DesiredDate,
		Comments:        strings.TrimSpace(d.Comments),
		TakenAt:         time.Now().UTC(),
	}
	if visible.Has(GroupOrganization) {
		s.CompanyName = strings.TrimSpace(d.CompanyName)
		s.CompanySIRET = strings.TrimSpace(d.CompanySIRET)
	}
	if visible.Has(GroupPermit) {
		s.PermitNumber = strings.TrimSpace(d.PermitNumber)
		s.PermitDate = d.PermitDate
	}
	if visible.Has(GroupBilling) {
		s.BillingStreet = strings.TrimSpace(d.BillingStreet)
		s.BillingCity = strings.TrimSpace(d.BillingCity)
		s.BillingPostal = strings.TrimSpace(d.BillingPostal)
	}
	if visible.Has(GroupArchitect) {
		s.ArchitectName = strings.TrimSpace(d.ArchitectName)
		s.ArchitectPhone = strings.TrimSpace(d.ArchitectPhone)
		s.ArchitectEmail = strings.TrimSpace(d.ArchitectEmail)
	}
	return s
}

// FullName returns the applicant's display name.
func (s *Snapshot) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// CreateInput converts the snapshot into the service-request create payload.
func (s *Snapshot) CreateInput() *requests.CreateServiceRequestInput {
	return &requests.CreateServiceRequestInput{
		ClientCategory:  string(s.ClientCategory),
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Email:           s.Email,
		Phone:           s.Phone,
		CompanyName:     s.CompanyName,
		CompanySIRET:    s.CompanySIRET,
		RequestCategory: string(s.RequestCategory),
		BuildingType:    string(s.BuildingType),
		ProjectStatus:   string(s.ProjectStatus),
		PermitNumber:    s.PermitNumber,
		PermitDate:      s.PermitDate,
		Street:          s.Street,
		Complement:      s.Complement,
		City:            s.City,
		PostalCode:      s.PostalCode,
		CadastralRef:    s.CadastralRef,
		PowerKVA:        s.PowerKVA,
		PhaseType:       string(s.PhaseType),
		DesiredDate:     s.DesiredDate,
		BillingStreet:   s.BillingStreet,
		BillingCity:     s.BillingCity,
		BillingPostal:   s.BillingPostal,
		ArchitectName:   s.ArchitectName,
		ArchitectPhone:  s.ArchitectPhone,
		ArchitectEmail:  s.ArchitectEmail,
		Comments:        s.Comments,
	}
}
