package domain

import "github.com/google/uuid"

// ValidID reports whether s has the shape of a record id.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
