package scan

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// DateSource records where a detected date came from.
type DateSource string

const (
	SourceNone       DateSource = ""
	SourceFilename   DateSource = "filename"
	SourceFilesystem DateSource = "filesystem"
)

type datePattern struct {
	re      *regexp.Regexp
	hasTime bool
}

// Ordered from most to least specific.
var datePatterns = []datePattern{
	{regexp.MustCompile(`(?i)screenshot[_-](\d{4})(\d{2})(\d{2})[_-](\d{2})(\d{2})(\d{2})`), true},
	{regexp.MustCompile(`(\d{4})(\d{2})(\d{2})[_-](\d{2})(\d{2})(\d{2})`), true},
	{regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})[ _T](\d{2})[.:-](\d{2})[.:-](\d{2})`), true},
	{regexp.MustCompile(`(?i)(?:img|vid)-(\d{4})(\d{2})(\d{2})-wa\d+`), false},
	{regexp.MustCompile(`(?i)(?:img|vid|pxl|dsc)[_-](\d{4})(\d{2})(\d{2})(?:\D|$)`), false},
	{regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), false},
	{regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})`), false},
	{regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})`), false},
	{regexp.MustCompile(`(?:^|\D)(\d{4})(\d{2})(\d{2})(?:\D|$)`), false},
}

// DateDetector infers a capture date for a file.
type DateDetector struct {
	// UseModTime enables the modification-time fallback.
	UseModTime bool
	// Location interprets filename dates; nil means time.Local.
	Location *time.Location
	// MinYear and MaxYear bound accepted filename years.
	MinYear int
	MaxYear int
}

// NewDateDetector returns a detector with the filesystem fallback enabled.
func NewDateDetector() *DateDetector {
	return &DateDetector{UseModTime: true, MinYear: 1900, MaxYear: time.Now().Year() + 1}
}

// Detect returns the best date for path. ok is false when no source yields a
// plausible date.
func (d *DateDetector) Detect(path string, modTime time.Time) (time.Time, DateSource, bool) {
	if date, ok := d.FromFilename(filepath.Base(path)); ok {
		return date, SourceFilename, true
	}
	if d.UseModTime && !modTime.IsZero() {
		return modTime.In(d.location()), SourceFilesystem, true
	}
	return time.Time{}, SourceNone, false
}

// FromFilename parses the first plausible date embedded in name.
func (d *DateDetector) FromFilename(name string) (time.Time, bool) {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(name, -1) {
			if date, ok := d.build(m[1:], p.hasTime); ok {
				return date, true
			}
		}
	}
	return time.Time{}, false
}

func (d *DateDetector) build(parts []string, hasTime bool) (time.Time, bool) {
	nums := make([]int, 6)
	for i, part := range parts {
		if i >= len(nums) {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]
	hour, minute, second := 0, 0, 0
	if hasTime {
		hour, minute, second = nums[3], nums[4], nums[5]
		if hour > 23 || minute > 59 || second > 59 {
			return time.Time{}, false
		}
	}
	if !d.yearInRange(year) || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, hour, minute, second, 0, d.location())
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, false
	}
	return date, true
}

func (d *DateDetector) yearInRange(year int) bool {
	minYear, maxYear := d.MinYear, d.MaxYear
	if minYear == 0 {
		minYear = 1900
	}
	if maxYear == 0 {
		maxYear = time.Now().Year() + 1
	}
	return year >= minYear && year <= maxYear
}

func (d *DateDetector) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.Local
}
