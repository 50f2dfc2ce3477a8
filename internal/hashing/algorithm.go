package hashing

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"strings"

	"chronoclean/internal/services"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	MD5    Algorithm = "md5"
)

// ParseAlgorithm converts a configured name into an Algorithm, rejecting
// anything other than sha256 or md5.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case SHA256:
		return SHA256, nil
	case MD5:
		return MD5, nil
	default:
		return "", services.Wrap(services.ErrValidation, "hashing", "parse algorithm",
			fmt.Sprintf("unsupported hash algorithm %q (want sha256 or md5)", name), nil)
	}
}

func (a Algorithm) String() string { return string(a) }

func (a Algorithm) newHash() hash.Hash {
	if a == MD5 {
		return md5.New()
	}
	return sha256.New()
}
