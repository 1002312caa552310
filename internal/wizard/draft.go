package wizard

import (
	"fmt"
	"strings"
	"time"
)

// ClientCategory is the applicant type driving which fields are required.
type ClientCategory string

const (
	ClientIndividual   ClientCategory = "individual"
	ClientProfessional ClientCategory = "professional"
	ClientPublicEntity ClientCategory = "public-entity"
)

// IsValid checks if the category is a known ClientCategory value.
func (c ClientCategory) IsValid() bool {
	switch c {
	case ClientIndividual, ClientProfessional, ClientPublicEntity:
		return true
	default:
		return false
	}
}

// RequestCategory is the kind of raccordement work requested.
type RequestCategory string

const (
	RequestNewConnection       RequestCategory = "new-connection"
	RequestPowerUpgrade        RequestCategory = "power-upgrade"
	RequestTemporaryConnection RequestCategory = "temporary-connection"
	RequestRelocation          RequestCategory = "relocation"
	RequestTechnicalVisit      RequestCategory = "technical-visit"
)

func (c RequestCategory) IsValid() bool {
	switch c {
	case RequestNewConnection, RequestPowerUpgrade, RequestTemporaryConnection, RequestRelocation, RequestTechnicalVisit:
		return true
	default:
		return false
	}
}

// BuildingType categorizes the premises to connect.
type BuildingType string

const (
	BuildingHouse        BuildingType = "house"
	BuildingApartment    BuildingType = "apartment"
	BuildingCommercial   BuildingType = "commercial"
	BuildingIndustrial   BuildingType = "industrial"
	BuildingAgricultural BuildingType = "agricultural"
	BuildingPublic       BuildingType = "public"
)

func (b BuildingType) IsValid() bool {
	switch b {
	case BuildingHouse, BuildingApartment, BuildingCommercial, BuildingIndustrial, BuildingAgricultural, BuildingPublic:
		return true
	default:
		return false
	}
}

// ProjectStatus is how far the construction project has progressed.
type ProjectStatus string

const (
	ProjectPlanning              ProjectStatus = "planning"
	ProjectPermitPending         ProjectStatus = "permit-pending"
	ProjectPermitApproved        ProjectStatus = "permit-approved"
	ProjectConstructionStarted   ProjectStatus = "construction-started"
	ProjectConstructionCompleted ProjectStatus = "construction-completed"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectPlanning, ProjectPermitPending, ProjectPermitApproved, ProjectConstructionStarted, ProjectConstructionCompleted:
		return true
	default:
		return false
	}
}

// RequiresPermit reports whether the permit field group applies.
func (s ProjectStatus) RequiresPermit() bool {
	return s == ProjectPermitPending || s == ProjectPermitApproved
}

// PhaseType is the electrical phase configuration.
type PhaseType string

const (
	PhaseSingle PhaseType = "single"
	PhaseThree  PhaseType = "three"
)

func (p PhaseType) IsValid() bool {
	return p == PhaseSingle || p == PhaseThree
}

// PowerTiers is the fixed set of subscribable power levels, in kVA.
var PowerTiers = []string{"3", "6", "9", "12", "15", "18", "24", "30", "36"}

// IsValidPowerTier reports whether the value is one of the fixed tiers.
func IsValidPowerTier(v string) bool {
	for _, tier := range PowerTiers {
		if v == tier {
			return true
		}
	}
	return false
}

// Draft is the live, editable form state before submission. Values entered in
// field groups that later become hidden are retained here and only stripped
// when a snapshot is taken.
type Draft struct {
	ClientCategory   ClientCategory  `json:"clientCategory"`
	FirstName        string          `json:"firstName"`
	LastName         string          `json:"lastName"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	CompanyName      string          `json:"companyName"`
	CompanySIRET     string          `json:"companySiret"`
	RequestCategory  RequestCategory `json:"requestCategory"`
	BuildingType     BuildingType    `json:"buildingType"`
	ProjectStatus    ProjectStatus   `json:"projectStatus"`
	PermitNumber     string          `json:"permitNumber"`
	PermitDate       string          `json:"permitDate"`
	Street           string          `json:"street"`
	Complement       string          `json:"complement"`
	City             string          `json:"city"`
	PostalCode       string          `json:"postalCode"`
	CadastralRef     string          `json:"cadastralRef"`
	PowerKVA         string          `json:"powerKva"`
	PhaseType        PhaseType       `json:"phaseType"`
	DesiredDate      string          `json:"desiredDate"`
	BillingDifferent bool            `json:"billingDifferent"`
	BillingStreet    string          `json:"billingStreet"`
	BillingCity      string          `json:"billingCity"`
	BillingPostal    string          `json:"billingPostalCode"`
	HasArchitect     bool            `json:"hasArchitect"`
	ArchitectName    string          `json:"architectName"`
	ArchitectPhone   string          `json:"architectPhone"`
	ArchitectEmail   string          `json:"architectEmail"`
	Comments         string          `json:"comments"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewDraft returns an empty draft, created when the wizard mounts.
func NewDraft() *Draft {
	return &Draft{UpdatedAt: time.Now().UTC()}
}

// FullName returns the applicant's display name.
func (d *Draft) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
}

// Apply sets the named fields from a patch. Unknown field names are ignored
// and out-of-domain enum values are accepted as-is: the schema is only
// enforced by ValidateAll at submit time.
func (d *Draft) Apply(patch map[string]any) {
	for name, value := range patch {
		switch name {
		case "clientCategory":
			d.ClientCategory = ClientCategory(asString(value))
		case "firstName":
			d.FirstName = asString(value)
		case "lastName":
			d.LastName = asString(value)
		case "email":
			d.Email = asString(value)
		case "phone":
			d.Phone = asString(value)
		case "companyName":
			d.CompanyName = asString(value)
		case "companySiret":
			d.CompanySIRET = asString(value)
		case "requestCategory":
			d.RequestCategory = RequestCategory(asString(value))
		case "buildingType":
			d.BuildingType = BuildingType(asString(value))
		case "projectStatus":
			d.ProjectStatus = ProjectStatus(asString(value))
		case "permitNumber":
			d.PermitNumber = asString(value)
		case "permitDate":
			d.PermitDate = asString(value)
		case "street":
			d.Street = asString(value)
		case "complement":
			d.Complement = asString(value)
		case "city":
			d.City = asString(value)
		case "postalCode":
			d.PostalCode = asString(value)
		case "cadastralRef":
			d.CadastralRef = asString(value)
		case "powerKva":
			d.PowerKVA = asString(value)
		case "phaseType":
			d.PhaseType = PhaseType(asString(value))
		case "desiredDate":
			d.DesiredDate = asString(value)
		case "billingDifferent":
			d.BillingDifferent = asBool(value)
		case "billingStreet":
			d.BillingStreet = asString(value)
		case "billingCity":
			d.BillingCity = asString(value)
		case "billingPostalCode":
			d.BillingPostal = asString(value)
		case "hasArchitect":
			d.HasArchitect = asBool(value)
		case "architectName":
			d.ArchitectName = asString(value)
		case "architectPhone":
			d.ArchitectPhone = asString(value)
		case "architectEmail":
			d.ArchitectEmail = asString(value)
		case "comments":
			d.Comments = asString(value)
		}
	}
	d.UpdatedAt = time.Now().UTC()
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}
