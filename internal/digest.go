package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenDigest is the at-rest form of a credential string. Raw tokens are
// never written to storage; set membership and revocation entries are keyed
// by this digest.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
