// Package location parses the source and destination arguments of a move
// into local or S3 locations and formats them for planning and display.
package location
