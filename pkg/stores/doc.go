// Package stores provides the optional sqlite run journal: an append-only
// audit trail of runs and step outcomes. The journal is write-only from the
// pipeline's point of view; every run re-executes its whole step list
// regardless of what previous runs recorded.
package stores
