// Package s3 moves files and objects between the local filesystem and
// Amazon S3. It wraps AWS SDK v2 to provide the semantics of a command-line
// "mv": every file is transferred and its source removed once the transfer
// succeeded.
//
// Key features:
//   - Local to S3, S3 to local and S3 to S3 moves
//   - Recursive moves with ordered include/exclude rules
//   - Automatic multipart upload, download and copy for large files
//   - Concurrent execution with bounded requests and an optional rate cap
//   - Canned ACLs, grants, encryption, storage class and content headers
//   - Dry runs and per-file progress reporting
//
// Example usage:
//
//	client, err := s3.New(s3.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Move(ctx, "./build", "s3://my-bucket/releases/",
//	    s3.WithRecursive(true),
//	    s3.WithExclude("*.tmp"),
//	)
//	if err != nil {
//	    return err
//	}
package s3
