// Package scanner enumerates the source files of a move from the local
// filesystem or from S3 and passes the ones the filter includes on.
package scanner
