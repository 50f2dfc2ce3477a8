// Package organizer runs the apply pipeline: scan the source tree, propose
// dated destinations, resolve collisions, execute copies or moves, and hand the
// outcome to the run record writer.
//
// Files without a detected date are recorded as skipped. Per-file copy and
// move failures are counted on the record and the batch continues; a fail
// policy collision aborts before anything is executed, and no record is
// written in that case.
package organizer
