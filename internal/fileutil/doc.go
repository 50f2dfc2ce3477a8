// Package fileutil holds the copy and move primitives used when an apply run
// executes its plan.
package fileutil
