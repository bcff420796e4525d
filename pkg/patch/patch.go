// Package patch computes sparse column updates by comparing optional request
// values against stored values.
package patch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Kind selects how a field is compared
type Kind int

const (
	// String fields must be non-blank to count as a change
	String Kind = iota
	Number
	Bool
	// Array and Object fields are compared by their JSON encoding
	Array
	Object
	Date
)

// Field is one candidate column. Next is nil (or a nil pointer/slice) when absent.
type Field struct {
	Column  string
	Kind    Kind
	Next    interface{}
	Current interface{}
}

// Set is an ordered list of column assignments
type Set struct {
	columns []string
	values  []interface{}
}

// Diff evaluates fields in order and returns the assignments that change stored state
func Diff(fields ...Field) (*Set, error) {
	s := &Set{}
	for _, f := range fields {
		if _, err := s.Apply(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Apply adds f to the set when it is present and differs from the current value
func (s *Set) Apply(f Field) (bool, error) {
	next, ok := deref(f.Next)
	if !ok {
		return false, nil
	}
	current, _ := deref(f.Current)

	changed, err := differs(f.Kind, next, current)
	if err != nil {
		return false, fmt.Errorf("field %s: %w", f.Column, err)
	}
	if !changed {
		return false, nil
	}
	s.Put(f.Column, next)
	return true, nil
}

// Put assigns a column unconditionally, replacing an earlier assignment
func (s *Set) Put(column string, value interface{}) {
	for i, c := range s.columns {
		if c == column {
			s.values[i] = value
			return
		}
	}
	s.columns = append(s.columns, column)
	s.values = append(s.values, value)
}

// Has reports whether column is assigned
func (s *Set) Has(column string) bool {
	for _, c := range s.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Get returns the value assigned to column
func (s *Set) Get(column string) (interface{}, bool) {
	for i, c := range s.columns {
		if c == column {
			return s.values[i], true
		}
	}
	return nil, false
}

// Len returns the number of assignments
func (s *Set) Len() int { return len(s.columns) }

// Columns returns the assigned columns in order
func (s *Set) Columns() []string { return append([]string(nil), s.columns...) }

// Clause renders "col = $n, ..." with placeholders starting at start and returns the args
func (s *Set) Clause(start int) (string, []interface{}) {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = fmt.Sprintf("%s = $%d", c, start+i)
	}
	return strings.Join(parts, ", "), append([]interface{}(nil), s.values...)
}

func deref(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
	}
	return v, true
}

func differs(kind Kind, next, current interface{}) (bool, error) {
	switch kind {
	case String:
		ns, ok := next.(string)
		if !ok {
			return false, fmt.Errorf("expected string, got %T", next)
		}
		if strings.TrimSpace(ns) == "" {
			return false, nil
		}
		cs, _ := current.(string)
		return ns != cs, nil

	case Number:
		nf, err := toFloat(next)
		if err != nil {
			return false, err
		}
		if current == nil {
			return true, nil
		}
		cf, err := toFloat(current)
		if err != nil {
			return false, err
		}
		return nf != cf, nil

	case Bool:
		nb, ok := next.(bool)
		if !ok {
			return false, fmt.Errorf("expected bool, got %T", next)
		}
		cb, _ := current.(bool)
		return nb != cb, nil

	case Date:
		nt, ok := next.(time.Time)
		if !ok {
			return false, fmt.Errorf("expected time.Time, got %T", next)
		}
		ct, ok := current.(time.Time)
		if !ok {
			return true, nil
		}
		return !nt.Equal(ct), nil

	case Array, Object:
		nb, err := json.Marshal(next)
		if err != nil {
			return false, err
		}
		cb, err := json.Marshal(current)
		if err != nil {
			return false, err
		}
		return string(nb) != string(cb), nil
	}
	return false, fmt.Errorf("unknown kind %d", kind)
}

func toFloat(v interface{}) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
