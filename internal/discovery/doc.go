// Package discovery lists and looks up persisted run records and
// verification reports under the state directory. It never writes.
package discovery
