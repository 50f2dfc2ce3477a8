// Package preflight runs environment checks before work starts: state and
// destination directories must be writable, sources readable, and the
// destination filesystem must have room for a live copy. The doctor command
// renders every check; apply only consults the free-space gate.
package preflight
