// Package planner maps each scanned source file onto its destination and
// decides how many parts its transfer takes.
package planner
