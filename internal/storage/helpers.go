package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque student identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape produced by NewID. Handlers
// use it to reject malformed ids before they reach a query.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Now returns the timestamp a store records for createdAt / updatedAt.
// It is truncated to microseconds so values round-trip unchanged through
// every backend.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// likeEscaper escapes the LIKE metacharacters with a backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a free-text search token into a lower-cased
// "%token%" pattern for use with LIKE ... ESCAPE '\'.
func LikePattern(token string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(token)) + "%"
}
