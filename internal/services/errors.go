package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ValidationError lists every rule a request violated
type ValidationError struct {
	Problems []string

	// mistyped fields already carry a problem from body decoding
	mistyped map[string]bool
}

// NewValidationError creates a validation error from problems
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// typeProblemSource is an input that remembers its body type mismatches
type typeProblemSource interface {
	TypeProblemList() []string
}

// validationFor starts a validation seeded with the type mismatches found
// while decoding in. Later problems about a mismatched field are dropped so
// each field is reported once.
func validationFor(in typeProblemSource) *ValidationError {
	v := NewValidationError()
	for _, p := range in.TypeProblemList() {
		if v.mistyped == nil {
			v.mistyped = make(map[string]bool)
		}
		v.mistyped[problemField(p)] = true
		v.Problems = append(v.Problems, p)
	}
	return v
}

// problemField is the leading token of a problem, the field it names
func problemField(problem string) string {
	field, _, _ := strings.Cut(problem, " ")
	return field
}

func (e *ValidationError) add(problem string) {
	if e.mistyped[problemField(problem)] {
		return
	}
	e.Problems = append(e.Problems, problem)
}

func (e *ValidationError) Error() string {
	return "Bad request: " + strings.Join(e.Problems, "/")
}

// Add records one violated rule
func (e *ValidationError) Add(format string, args ...interface{}) {
	e.add(fmt.Sprintf(format, args...))
}

// AddErr records err's message when err is non-nil
func (e *ValidationError) AddErr(err error) {
	if err != nil {
		e.add(err.Error())
	}
}

// Err returns nil when no rule was violated
func (e *ValidationError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// NotFoundError reports a missing entity
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	name := "Resource"
	if e.Entity != "" {
		name = strings.ToUpper(e.Entity[:1]) + e.Entity[1:]
	}
	if e.Key == "" {
		return name + " not found"
	}
	return fmt.Sprintf("%s not found: %s", name, e.Key)
}

// CapacityError reports a sold out package or too few remaining slots
type CapacityError struct {
	Package   string
	Available int
	Requested int
}

func (e *CapacityError) Error() string {
	if e.Available <= 0 {
		return fmt.Sprintf("Package %q is sold out", e.Package)
	}
	return fmt.Sprintf("Only %d slots available for %q. You requested %d travelers.", e.Available, e.Package, e.Requested)
}

// NoChangeError is returned when an update would not modify anything
type NoChangeError struct{}

func (e *NoChangeError) Error() string { return "No changes detected" }

// ErrNoChange is the shared NoChangeError value
var ErrNoChange = &NoChangeError{}

// InsertError reports an insert that returned no identifier
type InsertError struct {
	Entity string
}

func (e *InsertError) Error() string { return fmt.Sprintf("failed to insert %s", e.Entity) }

// UpdateError reports an update that affected no rows
type UpdateError struct {
	Entity string
}

func (e *UpdateError) Error() string { return fmt.Sprintf("failed to update %s", e.Entity) }

// ConflictError reports a unique constraint violation
type ConflictError struct {
	Entity string
	Field  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with this %s already exists", e.Entity, e.Field)
}

// ReferenceError reports a foreign key violation. Missing is set when the
// row points at a parent that does not exist; otherwise other rows still
// point at it.
type ReferenceError struct {
	Entity  string
	Missing bool
}

func (e *ReferenceError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s references a record that does not exist", e.Entity)
	}
	return fmt.Sprintf("%s is referenced by other records", e.Entity)
}

// AuthError reports bad credentials or an unusable refresh token
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// InternalError wraps an unexpected failure
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *InternalError) Unwrap() error { return e.Err }

// internal wraps err unless it already belongs to the taxonomy
func internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *CapacityError
		nc *NoChangeError
		ie *InsertError
		ue *UpdateError
		cf *ConflictError
		re *ReferenceError
		ae *AuthError
		in *InternalError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &ce), errors.As(err, &nc),
		errors.As(err, &ie), errors.As(err, &ue), errors.As(err, &cf), errors.As(err, &re), errors.As(err, &ae), errors.As(err, &in):
		return err
	}
	return &InternalError{Op: op, Err: err}
}

// uniqueViolation maps a postgres unique violation to a ConflictError
func uniqueViolation(err error, entity, field string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &ConflictError{Entity: entity, Field: field}
	}
	return err
}

// foreignKeyViolation maps a postgres foreign key violation raised while
// deleting entity to a ReferenceError
func foreignKeyViolation(err error, entity string) error {
	if isForeignKeyViolation(err) {
		return &ReferenceError{Entity: entity}
	}
	return err
}

// missingParent maps a foreign key violation raised while writing entity,
// a parent removed after it was checked, to a ReferenceError
func missingParent(err error, entity string) error {
	if isForeignKeyViolation(err) {
		return &ReferenceError{Entity: entity, Missing: true}
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
