package executor

import "github.com/viant/fluxor/model/execution"

// evaluateCondition evaluates a simple condition string
// This is a placeholder for a more sophisticated condition evaluator
func evaluateCondition(condition string, process *execution.Process) bool {
	// In a real implementation, this would evaluate the condition against the process state
	// For now, assume all conditions are true
	return true
}
