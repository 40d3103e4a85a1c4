package models

// RecipientFilter is the declarative predicate selecting which clients
// belong to a campaign. Clauses compose with logical AND; a zero value
// for a clause means no constraint on that attribute.
//
// The filter is resolved exactly once, at campaign creation, against a
// snapshot of the recipient directory. It is stored on the campaign for
// audit only and is never re-evaluated afterward.
type RecipientFilter struct {
	// Status equality, e.g. "ativo".
	Status string `json:"status,omitempty"`

	// Plan name equality. Resolution fails with a validation error if
	// the plan does not exist.
	Plan string `json:"plan,omitempty"`

	// Overdue selects clients whose due date is before today.
	Overdue bool `json:"overdue,omitempty"`

	// DueInDays selects clients whose due date falls within the next
	// N days (today inclusive). Zero means no due-soon constraint.
	DueInDays int `json:"due_in_days,omitempty"`
}

// IsZero reports whether the filter constrains nothing.
func (f RecipientFilter) IsZero() bool {
	return f.Status == "" && f.Plan == "" && !f.Overdue && f.DueInDays == 0
}

// Validate performs validation on filter data
func (f RecipientFilter) Validate() error {
	if f.DueInDays < 0 {
		return ErrInvalidInput("due_in_days cannot be negative")
	}
	return nil
}
