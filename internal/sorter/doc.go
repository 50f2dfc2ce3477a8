// Package sorter maps a dated media file to its proposed destination: a date
// folder under the destination root, and optionally a generated filename.
package sorter
