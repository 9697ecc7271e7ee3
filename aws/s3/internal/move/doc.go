// Package move contains the pipeline behind a move: locations are parsed and
// formatted, the source is scanned and filtered, each file is planned onto
// its destination, and the executor transfers it and removes the source.
package move
