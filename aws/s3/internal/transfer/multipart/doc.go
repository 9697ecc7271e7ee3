// Package multipart splits large uploads and server-side copies into parts,
// sends the parts concurrently and completes or aborts the upload.
//
// It also owns the part sizing rules: the chunk size doubles until the part
// count fits the S3 limit of 10000 parts.
package multipart
