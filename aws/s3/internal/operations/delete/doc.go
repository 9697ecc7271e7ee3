// Package delete removes S3 objects once a move has written them to their
// destination.
package delete
