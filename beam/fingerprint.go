package beam

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// fingerprint hashes a chunk's content with sha3.Sum224, the way
// sourceproc/utils.go's GenerateSessionID hashes random bytes into a
// session id. Used only to annotate the bookkeeping-warning log line
// emitted when the emitted-notification path can't find its source chunk
// in hold, so the warning names *which* content went missing without
// dumping the (possibly large) chunk itself.
func fingerprint(c *Chunk) string {
	if c == nil || c.Data == nil {
		return ""
	}
	sum := sha3.Sum224(c.Data.Bytes())
	return hex.EncodeToString(sum[:])
}
