// Package cleaner deletes source files whose copies a verification report has
// confirmed. Eligibility is re-checked against the filesystem both when the
// candidate list is built and again right before each deletion, because
// reports go stale between verify and cleanup.
package cleaner
