package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageIdentityContentAddressing(t *testing.T) {
	a := ImageIdentity([]byte{0x01, 0x02, 0x03, 0x04})
	b := ImageIdentity([]byte{0x01, 0x02, 0x03, 0x04})
	c := ImageIdentity([]byte{0x01, 0x02, 0x03, 0x05}) // one byte differs

	assert.Equal(t, a.CacheKey(), b.CacheKey(), "identical bytes must yield identical keys")
	assert.NotEqual(t, a.CacheKey(), c.CacheKey(), "a single differing byte must yield a different key")
	assert.Len(t, a.CacheKey(), 64, "hex-encoded sha-256")
}

func TestTextIdentityNormalization(t *testing.T) {
	a := TextIdentity{FoodName: "Grilled  Salmon", InputMethod: "text"}
	b := TextIdentity{FoodName: "grilled salmon", InputMethod: "text"}
	c := TextIdentity{FoodName: "grilled salmon", InputMethod: "voice"}

	assert.Equal(t, a.CacheKey(), b.CacheKey(), "case and whitespace must not defeat dedup")
	assert.NotEqual(t, a.CacheKey(), c.CacheKey(), "input method is part of the identity")
}

func TestTextImageKeysDisjoint(t *testing.T) {
	img := ImageIdentity([]byte("grilled salmon"))
	txt := TextIdentity{FoodName: "grilled salmon", InputMethod: "text"}
	assert.NotEqual(t, img.CacheKey(), txt.CacheKey())
}

func TestNormalizeFoodName(t *testing.T) {
	assert.Equal(t, "grilled salmon", NormalizeFoodName("  Grilled\t Salmon "))
	assert.Equal(t, "", NormalizeFoodName("   "))
}

func TestDedupSignature(t *testing.T) {
	a := Entry{FoodName: "Grilled Salmon", InputMethod: "text"}
	b := Entry{FoodName: "grilled  salmon", InputMethod: "text"}
	c := Entry{FoodName: "grilled salmon", InputMethod: "camera"}

	assert.Equal(t, a.DedupSignature(), b.DedupSignature())
	assert.NotEqual(t, a.DedupSignature(), c.DedupSignature())
}
