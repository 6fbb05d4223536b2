// Package dataset reads, writes and generates cruise test cases.
//
// The file format is one case per line with five whitespace-separated
// fields:
//
//	c1 c2 v0 tolerance max_iterations
//
// Blank lines and lines starting with '#' are ignored. A malformed line does
// not abort parsing; it is reported as a [ParseError] and skipped.
package dataset
