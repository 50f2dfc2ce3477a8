// Package services defines the error taxonomy shared by the planning,
// verification, and cleanup components.
//
// Failures are tagged with one of the exported sentinel markers through Wrap so
// commands can classify them (validation vs collision vs persistence) without
// string matching. Per-file I/O problems are never returned through this path;
// they are recorded as outcomes by the component that hit them.
package services
