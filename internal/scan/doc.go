// Package scan walks a source tree for media files and attaches a detected
// date to each one. Dates come from filename patterns first and fall back to
// the modification time; container metadata is not parsed.
package scan
