package planner

import "path/filepath"

// Reservations tracks destinations claimed within one planning batch together
// with the source that claimed each of them.
type Reservations struct {
	sources map[string]string
}

// NewReservations returns an empty reservation set.
func NewReservations() *Reservations {
	return &Reservations{sources: make(map[string]string)}
}

// Reserve claims dest for source.
func (r *Reservations) Reserve(dest, source string) {
	r.sources[filepath.Clean(dest)] = source
}

// IsReserved reports whether dest was claimed earlier in the batch.
func (r *Reservations) IsReserved(dest string) bool {
	if r == nil {
		return false
	}
	_, ok := r.sources[filepath.Clean(dest)]
	return ok
}

// SourceFor returns the source that claimed dest.
func (r *Reservations) SourceFor(dest string) (string, bool) {
	if r == nil {
		return "", false
	}
	src, ok := r.sources[filepath.Clean(dest)]
	return src, ok
}

// Len reports the number of claimed destinations.
func (r *Reservations) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sources)
}
