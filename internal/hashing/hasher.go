package hashing

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// HashChunkSize is the read size used by Hasher.
	HashChunkSize = 64 * 1024
	// CompareChunkSize is the read size used by Checker when comparing files.
	CompareChunkSize = 4 * 1024 * 1024
)

// Hasher computes streamed file digests. A nil Cache disables memoization.
type Hasher struct {
	Algorithm Algorithm
	Cache     *Cache
	ChunkSize int
}

// NewHasher returns a hasher for algorithm backed by cache.
func NewHasher(algorithm Algorithm, cache *Cache) *Hasher {
	return &Hasher{Algorithm: algorithm, Cache: cache, ChunkSize: HashChunkSize}
}

// Hash returns the hex digest of path. Any open or read failure is returned as
// an error; callers treat that as the read-failure marker.
func (h *Hasher) Hash(path string) (string, error) {
	algorithm := h.Algorithm
	if algorithm == "" {
		algorithm = SHA256
	}
	key := resolvePath(path)
	if digest, ok := h.Cache.get(key, algorithm); ok {
		return digest, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	chunk := h.ChunkSize
	if chunk <= 0 {
		chunk = HashChunkSize
	}
	digest := algorithm.newHash()
	if _, err := io.CopyBuffer(digest, f, make([]byte, chunk)); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	sum := hex.EncodeToString(digest.Sum(nil))
	h.Cache.put(key, algorithm, sum)
	return sum, nil
}

func resolvePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}
