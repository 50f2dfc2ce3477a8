package runrecord

import (
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const idTimeLayout = "20060102_150405"

var idPattern = regexp.MustCompile(`^\d{8}_\d{6}_[0-9a-f]{4}$`)

// NewID returns an identifier of the form YYYYMMDD_HHMMSS_xxxx using the local
// time of now and four random hex digits.
func NewID(now time.Time) string {
	random := uuid.New()
	return now.Local().Format(idTimeLayout) + "_" + hex.EncodeToString(random[:2])
}

// ValidID reports whether id has the run/verify identifier shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
