package sorter

import (
	"path/filepath"
	"strings"
	"time"
)

// Renamer generates filenames from a pattern. Supported placeholders are
// {date}, {time} and {original}; DateFormat and TimeFormat are Go layouts.
type Renamer struct {
	Pattern             string
	DateFormat          string
	TimeFormat          string
	LowercaseExtensions bool
}

// Name returns the generated filename for source, keeping its extension.
func (r *Renamer) Name(source string, date time.Time) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	original := strings.TrimSuffix(base, ext)
	if r.LowercaseExtensions {
		ext = strings.ToLower(ext)
	}

	dateLayout := r.DateFormat
	if dateLayout == "" {
		dateLayout = "20060102"
	}
	timeLayout := r.TimeFormat
	if timeLayout == "" {
		timeLayout = "150405"
	}
	pattern := r.Pattern
	if pattern == "" {
		pattern = "{date}_{time}"
	}

	name := strings.NewReplacer(
		"{date}", date.Format(dateLayout),
		"{time}", date.Format(timeLayout),
		"{original}", original,
	).Replace(pattern)
	name = sanitize(name)
	if name == "" {
		name = original
	}
	return name + ext
}

// sanitize drops path separators so a pattern can never escape its folder.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
