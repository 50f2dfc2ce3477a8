package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chronoclean/internal/services"
)

// MaxSuffix is the highest disambiguation counter tried before giving up.
const MaxSuffix = 9999

// UniquePath returns dest if it is neither on disk nor reserved. Otherwise it
// appends _001, _002, ... before the extension and returns the first candidate
// that is free on both counts. reserved may be nil.
func UniquePath(dest string, reserved *Reservations) (string, error) {
	if !taken(dest, reserved) {
		return dest, nil
	}

	dir := filepath.Dir(dest)
	base := filepath.Base(dest)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for counter := 1; counter <= MaxSuffix; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", stem, counter, ext))
		if !taken(candidate, reserved) {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrCollision, "planner", "disambiguate",
		fmt.Sprintf("no free name for %s after %d attempts", dest, MaxSuffix), nil)
}

func taken(path string, reserved *Reservations) bool {
	return exists(path) || reserved.IsReserved(path)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
