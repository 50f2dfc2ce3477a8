// Package hashing streams file contents into digests and answers byte-equality
// questions about pairs of files.
//
// A Hasher owns an explicit Cache keyed by resolved path and algorithm; callers
// that want to share digests across components pass the same Cache by
// reference. Nothing in this package keeps package-level state, and nothing
// interprets media content.
package hashing
