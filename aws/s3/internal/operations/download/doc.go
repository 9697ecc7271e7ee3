// Package download moves S3 objects onto the local filesystem.
//
// Objects are streamed into a temporary file next to the destination and
// renamed into place once complete, so an interrupted download never leaves
// a truncated file under the destination name.
package download
