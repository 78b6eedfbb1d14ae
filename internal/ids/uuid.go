// Package ids issues UUIDv7 identifiers for server-assigned primary keys.
package ids

import "github.com/google/uuid"

// Generator issues time-ordered UUIDv7 identifiers.
type Generator struct{}

// NewGenerator constructs a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewID returns a fresh UUIDv7 string.
func (*Generator) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
