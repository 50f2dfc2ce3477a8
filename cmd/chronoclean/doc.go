// Command chronoclean organizes photo and video collections into date folders
// and proves the copies before any source is deleted.
//
// The workflow is apply, then verify, then cleanup. Each step is its own
// invocation; they hand off through run records and verification reports in
// the state directory.
package main
