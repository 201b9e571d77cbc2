package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Validator checks a route table for patterns that can never match or
// that collide with each other.
type Validator struct {
	routes Routes
	errors []ValidationError
}

// ValidationError describes one problem in a route table.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Paths are the patterns involved, in registration order
	Paths []string

	// Details contains additional error-specific information
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorInvalidPattern marks a pattern rejected by routepath.ValidatePattern.
	ErrorInvalidPattern ValidationErrorType = "INVALID_PATTERN"

	// ErrorDuplicateRoute marks patterns with the same shape. Only the first
	// registered one can ever be picked.
	// Example: /users/:id and /users/:name
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorDuplicateName marks two routes sharing a non-empty Name.
	ErrorDuplicateName ValidationErrorType = "DUPLICATE_NAME"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is reports whether any contained error has the target's type, so
// errors.Is(err, ValidationError{Type: ErrorDuplicateRoute}) works.
func (e *MultiValidationError) Is(target error) bool {
	var want ValidationError
	if !errors.As(target, &want) {
		return false
	}
	for _, ve := range e.Errors {
		if ve.Type == want.Type {
			return true
		}
	}
	return false
}

// NewValidator creates a validator for routes.
func NewValidator(routes Routes) *Validator {
	return &Validator{routes: routes}
}

// Validate checks all routes. It returns nil when the table is clean, or a
// *MultiValidationError listing every problem.
func (v *Validator) Validate() error {
	v.errors = nil

	v.validatePatterns()
	v.validateDuplicateRoutes()
	v.validateNames()

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

func (v *Validator) validatePatterns() {
	for _, route := range v.routes {
		if route.Path == "." {
			continue
		}
		if err := routepath.ValidatePattern(route.Path); err != nil {
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorInvalidPattern,
				Message: fmt.Sprintf("Invalid pattern %s", route.Path),
				Paths:   []string{route.Path},
				Details: err.Error(),
			})
		}
	}
}

// validateDuplicateRoutes groups patterns by shape: static text kept,
// param names erased.
func (v *Validator) validateDuplicateRoutes() {
	var order []string
	byShape := make(map[string][]string)
	for _, route := range v.routes {
		key := shape(route.Path)
		if _, seen := byShape[key]; !seen {
			order = append(order, key)
		}
		byShape[key] = append(byShape[key], route.Path)
	}

	for _, key := range order {
		paths := byShape[key]
		if len(paths) <= 1 {
			continue
		}
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorDuplicateRoute,
			Message: fmt.Sprintf("Duplicate route detected at %s", key),
			Paths:   paths,
			Details: fmt.Sprintf("%s shadows %s", paths[0], strings.Join(paths[1:], ", ")),
		})
	}
}

func (v *Validator) validateNames() {
	byName := make(map[string]string)
	for _, route := range v.routes {
		if route.Name == "" {
			continue
		}
		if prev, ok := byName[route.Name]; ok {
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorDuplicateName,
				Message: fmt.Sprintf("Duplicate route name %q", route.Name),
				Paths:   []string{prev, route.Path},
			})
			continue
		}
		byName[route.Name] = route.Path
	}
}

func shape(pattern string) string {
	if pattern == "." {
		return "."
	}
	segments := routepath.Segmentize(pattern)
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg.Kind {
		case routepath.Root:
			continue
		case routepath.Dynamic:
			parts = append(parts, ":")
		case routepath.Splat:
			parts = append(parts, "*")
		default:
			parts = append(parts, seg.Value)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// SortBySpecificity orders routes the way Pick prefers them: highest rank
// first, then more segments, then registration order.
func SortBySpecificity(routes Routes) {
	sort.SliceStable(routes, func(i, j int) bool {
		si := routepath.Segmentize(routes[i].Path)
		sj := routepath.Segmentize(routes[j].Path)
		ri, rj := routepath.Rank(si), routepath.Rank(sj)
		if ri != rj {
			return ri > rj
		}
		return len(si) > len(sj)
	})
}

// ValidateAndSort validates routes and returns a copy sorted by specificity.
func ValidateAndSort(routes Routes) (Routes, error) {
	if err := NewValidator(routes).Validate(); err != nil {
		return nil, err
	}
	sorted := append(Routes(nil), routes...)
	SortBySpecificity(sorted)
	return sorted, nil
}

// FormatValidationError formats a validation error for display:
//
//	ERROR: Duplicate route detected at /users/:
//	  /users/:id
//	  /users/:name
func FormatValidationError(err ValidationError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ERROR: %s\n", err.Message))
	for _, path := range err.Paths {
		sb.WriteString(fmt.Sprintf("  %s\n", path))
	}
	if err.Details != "" {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", err.Details))
	}

	return sb.String()
}
