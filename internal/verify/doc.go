// Package verify proves that apply runs copied files intact.
//
// A Verifier either walks the copy entries of a run record or, when no record
// exists, a reconstructed source to destination mapping. Each pair is
// classified by re-hashing both sides (sha256 mode) or by comparing sizes
// (quick mode). Quick mode is a deliberately weak approximation: equal sizes
// count as OK even when content differs, and reports produced in quick mode
// do not unlock cleanup unless the operator opts in.
//
// Reports are persisted once, after every pair has been classified.
package verify
