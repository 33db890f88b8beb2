package form

import (
	"fmt"
	"strings"
)

// FieldErrors maps an input name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) add(key, msg string) {
	if _, exists := e[key]; exists {
		return
	}
	e[key] = msg
}

// Has reports whether key carries an error.
func (e FieldErrors) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Get returns the message for key, or "".
func (e FieldErrors) Get(key string) string {
	return e[key]
}

// ValidationError is returned by Submit when the draft is rejected.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, key := range e.Fields.SortedKeys() {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "restaurant form invalid: " + strings.Join(parts, "; ")
}
