package execshell

// CommandEventObserver receives lifecycle notifications while a shell command
// runs: one started event, then either a completed event carrying the result
// or an execution-failed event when the command never produced one.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand)                    {}
func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error)     {}
