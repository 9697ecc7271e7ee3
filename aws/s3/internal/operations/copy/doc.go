// Package copy moves S3 objects between S3 locations with server-side copies.
//
// Objects below the multipart threshold use CopyObject; larger objects are
// copied in ranges with UploadPartCopy. No object data passes through the
// client in either case.
package copy
