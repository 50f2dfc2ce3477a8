// Package runrecord models the provenance log of one apply invocation and
// persists it as a single write-once JSON document.
//
// A Record is built in memory while the run executes. Writer.Run owns the
// durable write: the document lands on disk only when the enclosed work
// returns without error, so a failed or aborted run leaves no record behind.
// Dry-run records use a distinct filename suffix so discovery can leave them
// out by default.
package runrecord
