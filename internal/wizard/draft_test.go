package wizard

import "testing"

func TestDraftApply(t *testing.T) {
	d := NewDraft()
	d.Apply(map[string]any{
		"clientCategory":   "professional",
		"firstName":        "Marie",
		"billingDifferent": true,
		"powerKva":         "12",
		"unknownField":     "ignored",
	})
	if d.ClientCategory != ClientProfessional || d.FirstName != "Marie" {
		t.Fatalf("patch not applied: %+v", d)
	}
	if !d.BillingDifferent || d.PowerKVA != "12" {
		t.Fatalf("patch not applied: %+v", d)
	}
}

func TestDraftApplyAcceptsOutOfDomainValues(t *testing.T) {
	d := NewDraft()
	d.Apply(map[string]any{"clientCategory": "alien"})
	if d.ClientCategory != ClientCategory("alien") {
		t.Fatal("out-of-domain enum values are stored as-is until submit")
	}
	if d.ClientCategory.IsValid() {
		t.Fatal("stored value must still fail IsValid")
	}
}

func TestDraftApplyBoolCoercion(t *testing.T) {
	d := NewDraft()
	d.Apply(map[string]any{"hasArchitect": "true"})
	if !d.HasArchitect {
		t.Fatal("string \"true\" should coerce to bool")
	}
	d.Apply(map[string]any{"hasArchitect": "no"})
	if d.HasArchitect {
		t.Fatal("non-true strings coerce to false")
	}
}

func TestProjectStatusRequiresPermit(t *testing.T) {
	for status, want := range map[ProjectStatus]bool{
		ProjectPlanning:       false,
		ProjectPermitPending:  true,
		ProjectPermitApproved: true,
	} {
		if got := status.RequiresPermit(); got != want {
			t.Errorf("%s.RequiresPermit() = %v, want %v", status, got, want)
		}
	}
}

func TestPowerTiers(t *testing.T) {
	if !IsValidPowerTier("3") || !IsValidPowerTier("36") {
		t.Fatal("boundary tiers must be valid")
	}
	if IsValidPowerTier("7") || IsValidPowerTier("") {
		t.Fatal("unknown tiers must be invalid")
	}
}
