package execshell

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const (
	gitCommandNameConstant                     = "git"
	loggerNotConfiguredMessageConstant         = "logger not configured"
	commandRunnerNotConfiguredMessageConstant  = "command runner not configured"
	commandFailedTemplateConstant              = "%s exited with code %d%s"
	commandExecutionFailureTemplateConstant    = "%s could not be executed: %s"
	commandLifecycleCommandFieldConstant       = "command"
	commandLifecycleArgumentsFieldConstant     = "arguments"
	commandLifecycleDirectoryFieldConstant     = "working_directory"
	commandLifecycleExitCodeFieldConstant      = "exit_code"
	commandLifecycleStartedMessageConstant     = "shell command started"
	commandLifecycleCompletedMessageConstant   = "shell command completed"
	commandLifecycleFailedMessageConstant      = "shell command failed"
	commandLifecycleUnexecutableMessage        = "shell command could not be executed"
	commandLifecycleStandardErrorFieldConstant = "standard_error"
)

// CommandName identifies a supported executable.
type CommandName string

// CommandGit names the git executable.
const CommandGit CommandName = CommandName(gitCommandNameConstant)

// CommandDetails describes the invocation parameters for a shell command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a command name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of an executed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Sentinel construction errors surfaced by NewShellExecutor.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// ShellExecutor coordinates command execution, logging, and observer notifications.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observer  CommandEventObserver
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor from the provided logger and runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	return NewShellExecutorWithObserver(logger, runner, noopCommandEventObserver{})
}

// NewShellExecutorWithObserver constructs a ShellExecutor that additionally notifies the supplied observer.
func NewShellExecutorWithObserver(logger *zap.Logger, runner CommandRunner, observer CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if observer == nil {
		observer = noopCommandEventObserver{}
	}

	return &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observer:  observer,
		formatter: CommandMessageFormatter{},
	}, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	command := ShellCommand{Name: CommandGit, Details: details}
	return executor.Execute(executionContext, command)
}

// Execute runs the supplied command, logging lifecycle events and notifying observers.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandLifecycleStartedMessageConstant,
		zap.String(commandLifecycleCommandFieldConstant, string(command.Name)),
		zap.Strings(commandLifecycleArgumentsFieldConstant, command.Details.Arguments),
		zap.String(commandLifecycleDirectoryFieldConstant, command.Details.WorkingDirectory),
	)
	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(
			commandLifecycleUnexecutableMessage,
			zap.String(commandLifecycleCommandFieldConstant, string(command.Name)),
			zap.Error(runError),
		)
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			commandLifecycleFailedMessageConstant,
			zap.String(commandLifecycleCommandFieldConstant, string(command.Name)),
			zap.Int(commandLifecycleExitCodeFieldConstant, executionResult.ExitCode),
			zap.String(commandLifecycleStandardErrorFieldConstant, executionResult.StandardError),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		commandLifecycleCompletedMessageConstant,
		zap.String(commandLifecycleCommandFieldConstant, string(command.Name)),
		zap.Int(commandLifecycleExitCodeFieldConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}
