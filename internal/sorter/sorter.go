package sorter

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"chronoclean/internal/config"
	"chronoclean/internal/services"
)

// Structure is a date folder layout.
type Structure string

const (
	StructureYear      Structure = "YYYY"
	StructureYearMonth Structure = "YYYY/MM"
	StructureYearDay   Structure = "YYYY/MM/DD"
)

// ParseStructure validates a folder layout name.
func ParseStructure(name string) (Structure, error) {
	switch Structure(strings.ToUpper(strings.TrimSpace(name))) {
	case StructureYear:
		return StructureYear, nil
	case StructureYearMonth, "":
		return StructureYearMonth, nil
	case StructureYearDay:
		return StructureYearDay, nil
	default:
		return "", services.Wrap(services.ErrValidation, "sorter", "parse structure",
			fmt.Sprintf("unsupported folder structure %q", name), nil)
	}
}

// Folder returns the relative folder for date.
func (s Structure) Folder(date time.Time) string {
	year := fmt.Sprintf("%04d", date.Year())
	switch s {
	case StructureYear:
		return year
	case StructureYearDay:
		return filepath.Join(year, fmt.Sprintf("%02d", int(date.Month())), fmt.Sprintf("%02d", date.Day()))
	default:
		return filepath.Join(year, fmt.Sprintf("%02d", int(date.Month())))
	}
}

// Sorter proposes destinations under Root.
type Sorter struct {
	Root      string
	Structure Structure
	Renamer   *Renamer
}

// New builds a sorter from configuration. Renaming is attached only when
// enabled.
func New(root string, cfg *config.Config) (*Sorter, error) {
	structure, err := ParseStructure(cfg.Sorting.FolderStructure)
	if err != nil {
		return nil, err
	}
	s := &Sorter{Root: root, Structure: structure}
	if cfg.Renaming.Enabled {
		s.Renamer = &Renamer{
			Pattern:             cfg.Renaming.Pattern,
			DateFormat:          cfg.Renaming.DateFormat,
			TimeFormat:          cfg.Renaming.TimeFormat,
			LowercaseExtensions: cfg.Renaming.LowercaseExtensions,
		}
	}
	return s, nil
}

// Destination returns the proposed destination of source for date.
func (s *Sorter) Destination(source string, date time.Time) string {
	name := filepath.Base(source)
	if s.Renamer != nil {
		name = s.Renamer.Name(source, date)
	}
	return filepath.Join(s.Root, s.Structure.Folder(date), name)
}

// Relative returns the destination relative to Root, for display.
func (s *Sorter) Relative(source string, date time.Time) string {
	rel, err := filepath.Rel(s.Root, s.Destination(source, date))
	if err != nil {
		return s.Destination(source, date)
	}
	return filepath.ToSlash(rel)
}
