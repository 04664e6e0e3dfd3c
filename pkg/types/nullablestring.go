package types

import "encoding/json"

// NullableString carries a string that may be absent. Absent is distinct
// from empty: the catalog merge step leaves absent fields untouched while
// an empty string overwrites.
type NullableString struct {
	Value string
	Valid bool // Valid is true if Value is present
}

func String(value string) NullableString {
	return NullableString{Value: value, Valid: true}
}

func NullString() NullableString {
	return NullableString{}
}

func (ns NullableString) String() string {
	if ns.Valid {
		return ns.Value
	}
	return ""
}

func (ns NullableString) IsNil() bool {
	return !ns.Valid
}

func (ns *NullableString) Set(value string) {
	ns.Value = value
	ns.Valid = true
}

func (ns *NullableString) Clear() {
	ns.Value = ""
	ns.Valid = false
}

// Ptr returns nil for an absent value, suitable for nullable SQL columns.
func (ns NullableString) Ptr() *string {
	if !ns.Valid {
		return nil
	}
	v := ns.Value
	return &v
}

func FromPtr(p *string) NullableString {
	if p == nil {
		return NullableString{}
	}
	return NullableString{Value: *p, Valid: true}
}

var _ json.Marshaler = &NullableString{}   // Ensure NullableString implements json.Marshaler
var _ json.Unmarshaler = &NullableString{} // Ensure NullableString implements json.Unmarshaler
var _ Nullable = &NullableString{}         // Ensure NullableString implements Nullable interface

// implement json.Marshaler interface
func (ns NullableString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.Value)
	}
	return json.Marshal(nil)
}

func (ns *NullableString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		ns.Value = ""
		ns.Valid = false
		return nil
	}
	ns.Valid = true
	return json.Unmarshal(data, &ns.Value)
}
