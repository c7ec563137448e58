package models

import "strings"

// AnyState is the dropdown value meaning "no state constraint".
const AnyState = "any"

// Criteria is the set of active filters for one search.
// Every non-empty field must match for a school to be included.
type Criteria struct {
	// NameQuery is matched case-insensitively as a substring of the
	// school name or city.
	NameQuery string `json:"q,omitempty"`
	// State is compared case-insensitively for equality with the
	// school's state. Empty or "any" disables the filter.
	State string `json:"state,omitempty"`
	// PostalCodePrefix must be a prefix of the school's postal code.
	PostalCodePrefix string `json:"postal_code,omitempty"`
}

// Normalize returns a copy with whitespace trimmed and the "any" state
// placeholder cleared.
func (c Criteria) Normalize() Criteria {
	n := Criteria{
		NameQuery:        strings.TrimSpace(c.NameQuery),
		State:            strings.TrimSpace(c.State),
		PostalCodePrefix: strings.TrimSpace(c.PostalCodePrefix),
	}
	if strings.EqualFold(n.State, AnyState) {
		n.State = ""
	}
	return n
}

// IsEmpty reports whether no filter is active after normalization.
func (c Criteria) IsEmpty() bool {
	n := c.Normalize()
	return n.NameQuery == "" && n.State == "" && n.PostalCodePrefix == ""
}
