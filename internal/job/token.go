// Package job implements job tokens, artifact path resolution, status
// reads, and the handoff to the external runner.
package job

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewToken generates a fresh job token: "job-" + a 14-digit
// second-resolution timestamp + "-" + 6 lowercase hex characters from
// crypto/rand. Tokens are never checked against existing artifacts; two
// launches within the same second collide only when the 24-bit random
// suffix collides too.
func NewToken() string {
	return newTokenAt(time.Now())
}

func newTokenAt(now time.Time) string {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; a non-random suffix still yields a usable token.
		copy(buf[:], []byte{byte(now.UnixNano()), byte(now.UnixNano() >> 8), byte(now.UnixNano() >> 16)})
	}
	return fmt.Sprintf("job-%s-%s", now.Format("20060102150405"), hex.EncodeToString(buf[:]))
}
