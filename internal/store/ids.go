package store

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// newRecordID returns fn-<suffix> where suffix is 8 chars of base32 (lowercase, no padding)
// taken from a random UUID. Ids already present in the collection are skipped.
func newRecordID(taken func(string) bool) string {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	for {
		u := uuid.New()
		id := "fn-" + strings.ToLower(enc.EncodeToString(u[:5]))
		if taken == nil || !taken(id) {
			return id
		}
	}
}
