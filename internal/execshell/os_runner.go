package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

const environmentPairSeparatorConstant = "="

// OSCommandRunner executes shell commands through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by the operating system.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the command and captures its output streams. A non-zero exit
// code is reported through ExecutionResult, not as an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	preparedCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	preparedCommand.Dir = command.Details.WorkingDirectory

	if len(command.Details.EnvironmentVariables) > 0 {
		environment := os.Environ()
		for variableName, variableValue := range command.Details.EnvironmentVariables {
			environment = append(environment, variableName+environmentPairSeparatorConstant+variableValue)
		}
		preparedCommand.Env = environment
	}

	if len(command.Details.StandardInput) > 0 {
		preparedCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	preparedCommand.Stdout = &standardOutput
	preparedCommand.Stderr = &standardError

	runError := preparedCommand.Run()
	executionResult := ExecutionResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
	}
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		executionResult.ExitCode = exitError.ExitCode()
	}
	return executionResult, nil
}
