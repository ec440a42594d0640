// Package xid generates identifiers for rows created at runtime, such as
// interactions posted through the API.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns "<prefix>-<unixnano>-<random hex>". Identifiers sort roughly
// by creation time; the random suffix disambiguates same-nanosecond inserts.
func New(prefix string) string {
	now := time.Now().UnixNano()
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%s-%d", prefix, now)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now, hex.EncodeToString(suffix))
}
