package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ProfileID identifies a fitting profile. Clients send it either as a JSON
// string or as a JSON number (a millisecond timestamp), while URL lookups
// always arrive as strings. Both forms are reduced to the same canonical text
// so that "1700000000000" and 1700000000000 match. This looseness is kept on
// purpose for existing clients.
type ProfileID struct {
	value   string
	numeric bool
}

// NewProfileID builds a ProfileID from its textual form.
func NewProfileID(s string) ProfileID {
	s = strings.TrimSpace(s)
	i, err := strconv.ParseInt(s, 10, 64)
	return ProfileID{value: s, numeric: err == nil && strconv.FormatInt(i, 10) == s}
}

// String returns the canonical text of the ID.
func (id ProfileID) String() string { return id.value }

// IsZero reports whether the ID is empty.
func (id ProfileID) IsZero() bool { return id.value == "" }

// Numeric reports whether the ID was, or can be read as, an integer.
func (id ProfileID) Numeric() bool { return id.numeric }

// Matches reports whether both IDs refer to the same profile regardless of
// whether either was supplied as a number or a string.
func (id ProfileID) Matches(other ProfileID) bool {
	return id.value != "" && id.value == other.value
}

// MarshalJSON writes numeric IDs back as numbers.
func (id ProfileID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts a string or a number.
func (id *ProfileID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ProfileID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NewProfileID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("profile id must be a string or a number")
	}
	// Float timestamps such as 1.7e12 are normalised to their integer text.
	if i, err := n.Int64(); err == nil {
		*id = ProfileID{value: strconv.FormatInt(i, 10), numeric: true}
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	*id = ProfileID{value: strconv.FormatFloat(f, 'f', -1, 64), numeric: f == float64(int64(f))}
	return nil
}

// Profile holds body measurements used to personalise recommendations.
type Profile struct {
	ID           ProfileID         `json:"id"`
	Owner        string            `json:"-"`
	Name         string            `json:"name"`
	Gender       string            `json:"gender,omitempty"`
	Height       string            `json:"height,omitempty"`
	Weight       string            `json:"weight,omitempty"`
	BodyType     string            `json:"body_type,omitempty"`
	Measurements map[string]string `json:"measurements,omitempty"`
}

// ListProfilesResponse is the response for listing profiles.
type ListProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}
