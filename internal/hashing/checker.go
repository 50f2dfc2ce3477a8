package hashing

import (
	"os"
	"sort"
)

// Checker answers byte-equality questions using file sizes and digests.
type Checker struct {
	hasher *Hasher
}

// NewChecker returns a duplicate checker. A nil cache disables memoization.
func NewChecker(algorithm Algorithm, cache *Cache) *Checker {
	return &Checker{hasher: &Hasher{Algorithm: algorithm, Cache: cache, ChunkSize: CompareChunkSize}}
}

// Algorithm reports the digest the checker compares with.
func (c *Checker) Algorithm() Algorithm {
	return c.hasher.Algorithm
}

// AreDuplicates reports whether a and b hold identical bytes. The same resolved
// path is always a duplicate of itself; files of different sizes are never
// hashed. Unreadable files are never duplicates.
func (c *Checker) AreDuplicates(a, b string) bool {
	if resolvePath(a) == resolvePath(b) {
		return true
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	if infoA.Size() != infoB.Size() {
		return false
	}
	digestA, err := c.hasher.Hash(a)
	if err != nil {
		return false
	}
	digestB, err := c.hasher.Hash(b)
	if err != nil {
		return false
	}
	return digestA == digestB
}

// FindDuplicates groups paths with identical content, keyed by digest. Only
// groups with two or more members are returned; unreadable files are ignored.
// Files are grouped by size first so unique sizes are never hashed.
func (c *Checker) FindDuplicates(paths []string) map[string][]string {
	bySize := make(map[int64][]string)
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		bySize[info.Size()] = append(bySize[info.Size()], path)
	}

	groups := make(map[string][]string)
	for _, candidates := range bySize {
		if len(candidates) < 2 {
			continue
		}
		for _, path := range candidates {
			digest, err := c.hasher.Hash(path)
			if err != nil {
				continue
			}
			groups[digest] = append(groups[digest], path)
		}
	}
	for digest, members := range groups {
		if len(members) < 2 {
			delete(groups, digest)
			continue
		}
		sort.Strings(members)
	}
	return groups
}
