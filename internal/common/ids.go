package common

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a lexicographically sortable 26 char id.
func NewULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// ShortID is the lower-cased random tail of a ULID, for file names.
func ShortID() string {
	id := NewULID()
	return strings.ToLower(id[len(id)-6:])
}
