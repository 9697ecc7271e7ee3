// Package pool provides the shared resources transfers draw from: pooled
// copy buffers and the request limiter that bounds in-flight S3 calls.
package pool
