// Package operations contains the core S3 operation implementations.
// These handle the low-level AWS SDK interactions a move is built from:
// upload, download, copy, delete and list.
//
// Each operation is isolated into its own subpackage for better organization
// and testability.
package operations
