package wizard

// FieldGroup tags an optional group of form fields whose visibility is
// derived from the draft.
type FieldGroup string

const (
	GroupOrganization FieldGroup = "organization"
	GroupPermit       FieldGroup = "permit"
	GroupBilling      FieldGroup = "billing"
	GroupArchitect    FieldGroup = "architect"
)

// GroupSet is the set of field groups currently visible.
type GroupSet map[FieldGroup]bool

// Has reports whether the group is visible.
func (s GroupSet) Has(g FieldGroup) bool {
	return s[g]
}

// VisibleGroups derives the visible field groups from the draft. It is a pure
// function: the same draft always yields the same set, and it is recomputed on
// every change instead of being stored. Hidden groups keep their values in the
// draft but are excluded from validation and stripped from snapshots.
func VisibleGroups(d *Draft) GroupSet {
	return GroupSet{
		GroupOrganization: d.ClientCategory != "" && d.ClientCategory != ClientIndividual,
		GroupPermit:       d.ProjectStatus.RequiresPermit(),
		GroupBilling:      d.BillingDifferent,
		GroupArchitect:    d.HasArchitect,
	}
}
