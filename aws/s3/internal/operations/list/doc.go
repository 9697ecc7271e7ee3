// Package list enumerates S3 objects for a move.
//
// Walk pages through every object under a prefix with ListObjectsV2; Stat
// resolves a single key with HeadObject.
package list
