// Package share implements the upload and download use cases and their
// HTTP handlers.
package share

import (
	"strings"

	"github.com/google/uuid"
)

// NewKey returns a random 128-bit identifier as 32 lowercase hex digits.
// Collisions are not checked for.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
