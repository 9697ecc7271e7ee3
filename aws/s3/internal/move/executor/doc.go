// Package executor runs planned moves on a bounded worker pool.
//
// Each move transfers its file (upload, download or server-side copy) and
// removes the source only once the transfer succeeded. Results are reported
// to a s3types.MoveReporter as they complete.
package executor
