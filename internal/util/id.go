package util

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string, used for request ids and record ids.
func NewID() string {
	return uuid.NewString()
}
