package jonx

import (
	"encoding/json"
	"fmt"
)

// Schema is the ordered field list plus field->PhysicalType map plus row
// count that spec.md §3 defines. Field order is the first record's keys in
// alphabetical order, extended by fields first appearing in later records
// (each record's new keys in alphabetical order); the key order of the
// input records is not preserved.
type Schema struct {
	Fields  []string
	Types   map[string]PhysicalType
	NumRows int
}

// schemaWire is the on-disk JSON shape of the schema frame (spec.md §6):
//
//	{ "fields": [name, ...], "types": { name: type_tag, ... }, "num_rows": N }
type schemaWire struct {
	Fields  []string          `json:"fields"`
	Types   map[string]string `json:"types"`
	NumRows int               `json:"num_rows"`
}

func (s *Schema) marshalJSON() ([]byte, error) {
	fields := s.Fields
	if fields == nil {
		// An empty record sequence has no fields; write [] rather than null
		// so unmarshalSchema accepts the schema.
		fields = []string{}
	}
	wire := schemaWire{
		Fields:  fields,
		Types:   make(map[string]string, len(s.Fields)),
		NumRows: s.NumRows,
	}
	for _, f := range s.Fields {
		wire.Types[f] = s.Types[f].String()
	}
	return json.Marshal(wire)
}

func unmarshalSchema(plaintext []byte) (*Schema, error) {
	var wire schemaWire
	if err := json.Unmarshal(plaintext, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMalformed, err)
	}
	if wire.Fields == nil || wire.Types == nil {
		return nil, fmt.Errorf("%w: missing fields or types", ErrSchemaMalformed)
	}

	seen := make(map[string]struct{}, len(wire.Fields))
	types := make(map[string]PhysicalType, len(wire.Fields))
	for _, f := range wire.Fields {
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrSchemaMalformed, f)
		}
		seen[f] = struct{}{}

		tag, ok := wire.Types[f]
		if !ok {
			return nil, fmt.Errorf("%w: field %q has no type", ErrSchemaMalformed, f)
		}
		t, ok := parseTag(tag)
		if !ok {
			return nil, fmt.Errorf("%w: unknown type tag %q", ErrSchemaMalformed, tag)
		}
		types[f] = t
	}

	return &Schema{
		Fields:  wire.Fields,
		Types:   types,
		NumRows: wire.NumRows,
	}, nil
}

// HasField reports whether f is part of the schema.
func (s *Schema) HasField(f string) bool {
	_, ok := s.Types[f]
	return ok
}

// checkConsistency verifies the schema's internal consistency: every
// declared field has a valid type tag and there are no duplicate names.
// This mirrors check_schema's structural-only contract (spec.md §4.5); it
// never touches column payloads.
func (s *Schema) checkConsistency() []error {
	var errs []error

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if _, dup := seen[f]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate field %q", ErrSchemaMalformed, f))
			continue
		}
		seen[f] = struct{}{}

		t, ok := s.Types[f]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: field %q has no declared type", ErrSchemaMalformed, f))
			continue
		}
		if !t.isValid() {
			errs = append(errs, fmt.Errorf("%w: field %q has invalid type tag", ErrSchemaMalformed, f))
		}
	}
	return errs
}
