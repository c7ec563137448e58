package models

import "strings"

// School represents one directory entry for a school eligible for the
// scholarship program. Only the ID, name and address fields take part in
// filtering; everything else is passed through to clients unchanged.
type School struct {
	Rating          *Rating  `json:"rating,omitempty"`
	TotalEnrollment *int     `json:"totalEnrollment,omitempty"`
	AlternateName   *string  `json:"alternateName,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Telephone       *string  `json:"telephone,omitempty"`
	Website         *string  `json:"website,omitempty"`
	Image           *string  `json:"image,omitempty"`
	ID              SchoolID `json:"id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug,omitempty"`
	GradeRange      string   `json:"gradeRange,omitempty"`
	Address         Address  `json:"address"`
}

// Address holds the location fields of a school. Absent fields are empty
// strings and never match a location filter.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	County     string `json:"county,omitempty"`
}

// Rating is the aggregate review score of a school.
type Rating struct {
	Value float64 `json:"value"`
	Count *int    `json:"count,omitempty"`
}

// Location returns "City, ST", or whichever half is present.
func (a Address) Location() string {
	parts := make([]string, 0, 2)
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if a.State != "" {
		parts = append(parts, a.State)
	}
	return strings.Join(parts, ", ")
}

// Valid reports whether the record carries the fields required to be indexed.
func (s *School) Valid() bool {
	return !s.ID.IsZero() && strings.TrimSpace(s.Name) != ""
}

// StateCount is the number of schools located in one state.
type StateCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}
