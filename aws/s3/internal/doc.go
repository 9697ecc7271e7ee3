// Package internal holds the implementation of the s3 package's Move.
//
//   - move: locations, filters, source scanning, planning and the worker pool
//     that executes a move
//   - operations: single-object upload, download, copy, delete and list
//   - transfer: multipart uploads and copies with concurrent parts
//   - validation: user input checks
//   - pool: request limiting and copy buffers
//   - s3api: the subset of the S3 API the client calls
//   - testutil: mocks, an in-memory S3 and LocalStack helpers for tests
package internal
