package wizard

import (
	"regexp"
	"strings"
	"time"
)

// FieldErrors maps field names to user-facing French error messages.
type FieldErrors map[string]string

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern  = regexp.MustCompile(`^(?:\+33|0)[1-9](?:[ .\-]?\d{2}){4}$`)
	postalPattern = regexp.MustCompile(`^\d{5}$`)
	siretPattern  = regexp.MustCompile(`^\d{14}$`)
)

const (
	msgRequired      = "Ce champ est obligatoire"
	msgInvalidEmail  = "Adresse e-mail invalide"
	msgInvalidPhone  = "Numéro de téléphone invalide"
	msgInvalidPostal = "Code postal invalide"
	msgInvalidSIRET  = "Numéro SIRET invalide"
	msgInvalidChoice = "Valeur non reconnue"
	msgInvalidDate   = "Date invalide"
)

// ValidateAll runs the full schema against the draft. It is invoked only at
// submit time. On success it returns an immutable snapshot of the draft with
// hidden field groups stripped; on failure it returns the per-field errors and
// the wizard stays in the editing state.
func ValidateAll(d *Draft) (*Snapshot, FieldErrors) {
	errs := FieldErrors{}
	visible := VisibleGroups(d)

	requireChoice(errs, "clientCategory", string(d.ClientCategory), d.ClientCategory.IsValid())
	requireText(errs, "firstName", d.FirstName)
	requireText(errs, "lastName", d.LastName)
	requireMatch(errs, "email", d.Email, emailPattern, msgInvalidEmail)
	requireMatch(errs, "phone", d.Phone, phonePattern, msgInvalidPhone)

	requireChoice(errs, "requestCategory", string(d.RequestCategory), d.RequestCategory.IsValid())
	requireChoice(errs, "buildingType", string(d.BuildingType), d.BuildingType.IsValid())
	requireChoice(errs, "projectStatus", string(d.ProjectStatus), d.ProjectStatus.IsValid())

	requireText(errs, "street", d.Street)
	requireText(errs, "city", d.City)
	requireMatch(errs, "postalCode", d.PostalCode, postalPattern, msgInvalidPostal)

	requireChoice(errs, "powerKva", d.PowerKVA, IsValidPowerTier(d.PowerKVA))
	requireChoice(errs, "phaseType", string(d.PhaseType), d.PhaseType.IsValid())

	if d.DesiredDate != "" {
		if _, err := time.Parse("2006-01-02", d.DesiredDate); err != nil {
			errs["desiredDate"] = msgInvalidDate
		}
	}

	if visible.Has(GroupOrganization) {
		requireText(errs, "companyName", d.CompanyName)
		requireMatch(errs, "companySiret", d.CompanySIRET, siretPattern, msgInvalidSIRET)
	}
	if visible.Has(GroupPermit) {
		requireText(errs, "permitNumber", d.PermitNumber)
		if strings.TrimSpace(d.PermitDate) == "" {
			errs["permitDate"] = msgRequired
		} else if _, err := time.Parse("2006-01-02", d.PermitDate); err != nil {
			errs["permitDate"] = msgInvalidDate
		}
	}
	if visible.Has(GroupBilling) {
		requireText(errs, "billingStreet", d.BillingStreet)
		requireText(errs, "billingCity", d.BillingCity)
		requireMatch(errs, "billingPostalCode", d.BillingPostal, postalPattern, msgInvalidPostal)
	}
	if visible.Has(GroupArchitect) {
		requireText(errs, "architectName", d.ArchitectName)
		requireMatch(errs, "architectPhone", d.ArchitectPhone, phonePattern, msgInvalidPhone)
		requireMatch(errs, "architectEmail", d.ArchitectEmail, emailPattern, msgInvalidEmail)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return NewSnapshot(d), nil
}

func requireText(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = msgRequired
	}
}

func requireMatch(errs FieldErrors, field, value string, pattern *regexp.Regexp, invalidMsg string) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs[field] = msgRequired
		return
	}
	if !pattern.MatchString(value) {
		errs[field] = invalidMsg
	}
}

func requireChoice(errs FieldErrors, field, value string, valid bool) {
	if strings.TrimSpace(value) == "" {
		errs[field] = msgRequired
		return
	}
	if !valid {
		errs[field] = msgInvalidChoice
	}
}
