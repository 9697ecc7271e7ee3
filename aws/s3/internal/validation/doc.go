// Package validation checks and parses user input before a move starts:
// bucket names, object keys and the parameters applied to destination
// objects (ACL, grants, encryption, storage class, headers, metadata).
//
// Every failure is an ErrInvalidInput carrying a message suitable for
// printing as is.
package validation
