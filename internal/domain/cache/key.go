package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Identity is the content identity of an analysis input. CacheKey must be
// deterministic: the same identity always yields the same key, and there is
// no partial or fuzzy matching.
type Identity interface {
	CacheKey() string
}

// ImageIdentity keys by cryptographic hash of the exact byte sequence; a
// single differing byte yields a wholly different key.
type ImageIdentity []byte

func (i ImageIdentity) CacheKey() string {
	sum := sha256.Sum256(i)
	return hex.EncodeToString(sum[:])
}

// TextIdentity keys by the normalized food name plus input method, so two
// lookups for the same name under the same modality collide and dedup.
type TextIdentity struct {
	FoodName    string
	InputMethod string
}

func (t TextIdentity) CacheKey() string {
	h := sha256.New()
	h.Write([]byte("text\x00"))
	h.Write([]byte(NormalizeFoodName(t.FoodName)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(t.InputMethod))))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeFoodName lowercases and collapses internal whitespace so that
// cosmetic spelling differences do not defeat dedup.
func NormalizeFoodName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
