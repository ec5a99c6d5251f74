package execshell

import (
	"fmt"
	"strings"
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error renders the failed command with its exit code and trailing standard error output.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := formatStandardErrorSuffix(failure.Result.StandardError)
	return fmt.Sprintf(commandFailedTemplateConstant, describeCommand(failure.Command), failure.Result.ExitCode, standardErrorSuffix)
}

// ExitCode exposes the exit code observed for the failed command.
func (failure CommandFailedError) ExitCode() int {
	return failure.Result.ExitCode
}

// CommandExecutionError reports a command that could not be started or observed.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error renders the unexecutable command with its underlying cause.
func (failure CommandExecutionError) Error() string {
	causeMessage := fallbackUnknownValueLabelConstant
	if failure.Cause != nil {
		causeMessage = failure.Cause.Error()
	}
	return fmt.Sprintf(commandExecutionFailureTemplateConstant, describeCommand(failure.Command), causeMessage)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

func describeCommand(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(commandParts, commandPartsJoinSeparatorConstant)
}
