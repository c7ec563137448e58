package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// SchoolID identifies a school. Datasets carry it either as a JSON number
// or as a string; both decode to the same canonical string form.
type SchoolID string

// IsZero reports whether the ID is unset.
func (id SchoolID) IsZero() bool {
	return id == ""
}

// String returns the canonical form of the ID.
func (id SchoolID) String() string {
	return string(id)
}

// UnmarshalJSON accepts numbers and strings. null leaves the ID empty.
func (id *SchoolID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to unmarshal school id: %w", err)
		}
		*id = SchoolID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to unmarshal school id: %w", err)
	}
	*id = SchoolID(n.String())
	return nil
}

// MarshalJSON always emits the ID as a string.
func (id SchoolID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Scan implements sql.Scanner so integer and text id columns both work.
func (id *SchoolID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*id = ""
	case int64:
		*id = SchoolID(strconv.FormatInt(v, 10))
	case int32:
		*id = SchoolID(strconv.FormatInt(int64(v), 10))
	case string:
		*id = SchoolID(v)
	case []byte:
		*id = SchoolID(string(v))
	default:
		return fmt.Errorf("failed to scan SchoolID: unsupported type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (id SchoolID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return string(id), nil
}
