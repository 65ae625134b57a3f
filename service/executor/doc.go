// Package executor defines the interface that bridges tasks enqueued by the
// processor with the backing implementation of actions.  It is effectively a
// glue layer between the high-level workflow model and low-level service
// implementations.
package executor
