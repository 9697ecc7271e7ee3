// Package filter applies ordered --include and --exclude rules to the files
// of a move.
//
// Patterns are evaluated against full paths: each pattern is joined onto the
// root of the source (the bucket for S3, the source directory for local
// files). Every file starts included and the last matching rule decides.
package filter
