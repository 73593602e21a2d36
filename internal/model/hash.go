package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content checksums. The version suffix enables a
// future algorithm migration without ambiguity.
const (
	DomainSnapshot = "omnisyncra/snapshot/v1"
	DomainDelta    = "omnisyncra/delta/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Checksum computes the domain-separated checksum of the canonical JSON
// form of v. Two values with identical canonical form always produce the
// same checksum, regardless of map iteration order or struct field order.
func Checksum(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}
