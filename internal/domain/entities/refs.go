package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Ref is an entity identifier. It decodes from a plain id string or from a
// pointer object such as {"__type":"Pointer","className":"Product","objectId":"..."}.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var obj struct {
		ObjectId string `json:"objectId"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("reference must be an id or an object with objectId: %w", err)
	}
	*r = Ref(obj.ObjectId)
	return nil
}

func (r Ref) String() string {
	return string(r)
}

// RefList is an ordered list of references.
type RefList []Ref

func (l RefList) Strings() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = string(r)
	}
	return out
}

// Date decodes an RFC 3339 string or a {"__type":"Date","iso":"..."} object.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var iso string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &iso); err != nil {
			return err
		}
	} else {
		var obj struct {
			Iso string `json:"iso"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		iso = obj.Iso
	}
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return err
	}
	d.Time = t.UTC()
	return nil
}

// Ptr returns nil for the zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
