package mapper

import (
	"errors"
	"fmt"
)

// ErrFieldClaimed is returned when a destination field is already assigned to
// another header in the same session
var ErrFieldClaimed = errors.New("destination field already claimed")

// ErrUnknownHeader is returned for headers the session was not created with
var ErrUnknownHeader = errors.New("unknown header")

// Session is the interactive correction layer over an AutoMap result. The
// matcher may propose the same destination for two headers; the session
// enforces the one-to-one constraint by refusing assignments to claimed
// fields and excluding them from the selectable options of other headers.
type Session struct {
	order    []string
	assigned map[string]Field // header -> field (FieldNone when unmapped)
	claimed  map[Field]string // field -> claiming header
}

// NewSession seeds a session from the auto-mapping proposal. When two headers
// were proposed the same field, the first header in sheet order keeps it and
// later ones start unmapped.
func NewSession(proposed []Mapping) *Session {
	s := &Session{
		assigned: make(map[string]Field, len(proposed)),
		claimed:  make(map[Field]string),
	}
	for _, m := range proposed {
		s.order = append(s.order, m.Source)
		if m.Field != FieldNone {
			if _, taken := s.claimed[m.Field]; !taken {
				s.assigned[m.Source] = m.Field
				s.claimed[m.Field] = m.Source
				continue
			}
		}
		s.assigned[m.Source] = FieldNone
	}
	return s
}

// Assign maps a header to a destination field, freeing the header's previous
// assignment. Assigning a field claimed by another header fails.
func (s *Session) Assign(header string, field Field) error {
	current, ok := s.assigned[header]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHeader, header)
	}

	if field == FieldNone {
		s.Clear(header)
		return nil
	}

	if owner, taken := s.claimed[field]; taken && owner != header {
		return fmt.Errorf("%w: %q is mapped to %q", ErrFieldClaimed, field, owner)
	}

	if current != FieldNone {
		delete(s.claimed, current)
	}
	s.assigned[header] = field
	s.claimed[field] = header
	return nil
}

// Clear unmaps a header, freeing its destination field for other headers
func (s *Session) Clear(header string) {
	if current, ok := s.assigned[header]; ok && current != FieldNone {
		delete(s.claimed, current)
		s.assigned[header] = FieldNone
	}
}

// FieldFor returns the destination currently assigned to a header
func (s *Session) FieldFor(header string) Field {
	return s.assigned[header]
}

// Options returns the destination fields still selectable for the given
// header: every unclaimed field plus the header's own current assignment
func (s *Session) Options(header string) []Field {
	var options []Field
	for _, f := range Fields {
		owner, taken := s.claimed[f]
		if !taken || owner == header {
			options = append(options, f)
		}
	}
	return options
}

// Unmapped returns the headers without a destination, in sheet order
func (s *Session) Unmapped() []string {
	var headers []string
	for _, h := range s.order {
		if s.assigned[h] == FieldNone {
			headers = append(headers, h)
		}
	}
	return headers
}

// Mappings returns the session state in sheet order
func (s *Session) Mappings() []Mapping {
	mappings := make([]Mapping, 0, len(s.order))
	for _, h := range s.order {
		mappings = append(mappings, Mapping{Source: h, Field: s.assigned[h]})
	}
	return mappings
}

// ColumnIndex returns a lookup from destination field to the column index of
// the header that claimed it
func (s *Session) ColumnIndex() map[Field]int {
	idx := make(map[Field]int)
	for i, h := range s.order {
		if f := s.assigned[h]; f != FieldNone {
			idx[f] = i
		}
	}
	return idx
}
