// Package approval implements the optional human-in-the-loop approval layer.
// It allows selected tasks to be paused until an explicit approval or reject
// decision is recorded.
package approval
