// Package testsupport holds fixtures shared by package tests: temp-directory
// configs and file writers.
package testsupport
