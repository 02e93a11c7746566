// Package cache holds simplified chunk outputs in memory so repeated
// requests for identical chunks skip the LLM. The cache is deliberately
// memory-only: writing chunk text to disk would violate the rule that raw
// input never reaches durable storage.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for chunk-result caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ChunkKey generates a cache key for one chunk simplification. The key
// covers everything that changes the output: chunk text, target language,
// level and model.
func ChunkKey(text, lang, level, model string) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(level))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "klartext:v1:" + hex.EncodeToString(h.Sum(nil))
}
