package service

import "time"

// OptionalRef is a tri-state link field in an update request: leave the
// stored value alone, point the link at a new id, or clear it. The zero
// value leaves the field untouched, so requests only mention what they
// change.
type OptionalRef struct {
	set bool
	id  uint
}

// SetRef points the link at id.
func SetRef(id uint) OptionalRef { return OptionalRef{set: true, id: id} }

// ClearRef removes the link.
func ClearRef() OptionalRef { return OptionalRef{set: true} }

// Mentioned reports whether the request named this field at all.
func (r OptionalRef) Mentioned() bool { return r.set }

// Value returns the requested link as a nullable id; nil means cleared.
func (r OptionalRef) Value() *uint {
	if r.id == 0 {
		return nil
	}
	id := r.id
	return &id
}

// OptionalTime is the tri-state counterpart for timestamp fields.
type OptionalTime struct {
	set bool
	t   *time.Time
}

// SetTime sets the field to t.
func SetTime(t time.Time) OptionalTime { return OptionalTime{set: true, t: &t} }

// ClearTime removes the stored value.
func ClearTime() OptionalTime { return OptionalTime{set: true} }

// Mentioned reports whether the request named this field at all.
func (o OptionalTime) Mentioned() bool { return o.set }

// Value returns the requested timestamp; nil means cleared.
func (o OptionalTime) Value() *time.Time { return o.t }
