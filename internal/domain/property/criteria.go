package property

import "strings"

// Criteria are optional listing filters. A zero-valued field is no constraint.
type Criteria struct {
	// PropertyType must match exactly.
	PropertyType string
	// Location is a case-insensitive substring of the property's location.
	Location string
	// MaxGuests is the party size the property must accommodate.
	MaxGuests int
	// PricePerNight is the highest acceptable nightly price.
	PricePerNight int64
}

// Matches applies the field predicates. Visibility (status) is not checked here.
func (c Criteria) Matches(p *Property) bool {
	if c.PropertyType != "" && p.PropertyType != c.PropertyType {
		return false
	}
	if c.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(c.Location)) {
		return false
	}
	if c.MaxGuests > 0 && p.MaxGuests < c.MaxGuests {
		return false
	}
	if c.PricePerNight > 0 && p.PricePerNight > c.PricePerNight {
		return false
	}
	return true
}
