package verify

import (
	"fmt"
	"strings"

	"chronoclean/internal/services"
)

// Mode selects how pairs are compared.
type Mode string

const (
	// ModeSHA256 re-hashes both files.
	ModeSHA256 Mode = "sha256"
	// ModeQuick compares sizes only.
	ModeQuick Mode = "quick"
)

// ParseMode validates a verification algorithm name.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeSHA256:
		return ModeSHA256, nil
	case ModeQuick:
		return ModeQuick, nil
	default:
		return "", services.Wrap(services.ErrValidation, "verify", "parse algorithm",
			fmt.Sprintf("unsupported algorithm %q (use sha256 or quick)", name), nil)
	}
}

// Strong reports whether the mode compares content.
func (m Mode) Strong() bool {
	return m == ModeSHA256
}
