package requests

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
)

// ReferencePrefix is the canonical prefix carried by every reference exposed
// to clients. References issued by an earlier system used "RAC-"; those are
// recognized and never double-prefixed.
const ReferencePrefix = "REF-"

const legacyReferencePrefix = "RAC-"

// CanonicalReference prefixes a raw reference with ReferencePrefix unless it
// already carries a recognized prefix.
func CanonicalReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	upper := strings.ToUpper(ref)
	if strings.HasPrefix(upper, ReferencePrefix) || strings.HasPrefix(upper, legacyReferencePrefix) {
		return upper
	}
	return ReferencePrefix + upper
}

// NewReference generates an 8-digit reference number. Uniqueness is enforced
// by the repository, which retries on collision.
func NewReference() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("requests: reference entropy unavailable: %v", err))
	}
	n := binary.BigEndian.Uint64(buf[:]) % 100000000
	return fmt.Sprintf("%08d", n)
}

// StripReferencePrefix removes a recognized prefix, returning the raw digits
// stored in the database.
func StripReferencePrefix(ref string) string {
	upper := strings.ToUpper(strings.TrimSpace(ref))
	upper = strings.TrimPrefix(upper, ReferencePrefix)
	upper = strings.TrimPrefix(upper, legacyReferencePrefix)
	return upper
}
