package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandPartsJoinSeparatorConstant       = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	fallbackUnknownValueLabelConstant       = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
)

// gitSubcommandMessages holds the narration templates for one git
// subcommand. Every template takes the working directory; the failure
// template also takes the exit code and a standard error suffix.
type gitSubcommandMessages struct {
	start   string
	success string
	failure string
}

var gitMessagesBySubcommand = map[string]gitSubcommandMessages{
	"rev-parse": {
		start:   "Inspecting repository state in %s",
		success: "Inspected repository state in %s",
		failure: "Failed to inspect repository state in %s (exit code %d%s)",
	},
	"fetch": {
		start:   "Fetching remote references in %s",
		success: "Fetched remote references in %s",
		failure: "Failed to fetch remote references in %s (exit code %d%s)",
	},
	"for-each-ref": {
		start:   "Listing branches in %s",
		success: "Listed branches in %s",
		failure: "Failed to list branches in %s (exit code %d%s)",
	},
	"merge-base": {
		start:   "Checking merge ancestry in %s",
		success: "Checked merge ancestry in %s",
		failure: "Merge ancestry check in %s reported exit code %d%s",
	},
	"rev-list": {
		start:   "Counting divergent commits in %s",
		success: "Counted divergent commits in %s",
		failure: "Failed to count divergent commits in %s (exit code %d%s)",
	},
	"ls-files": {
		start:   "Listing tracked paths in %s",
		success: "Listed tracked paths in %s",
		failure: "Failed to list tracked paths in %s (exit code %d%s)",
	},
}

// CommandMessageFormatter builds human-readable messages for command
// lifecycle events, with tailored phrasing for the git subcommands the
// audit runs.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	if templates, known := gitTemplatesFor(command); known {
		return fmt.Sprintf(templates.start, describeWorkingDirectory(command))
	}
	return fmt.Sprintf(genericStartTemplateConstant, commandLabel(command))
}

// BuildSuccessMessage formats the message describing a command that exited zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	if templates, known := gitTemplatesFor(command); known {
		return fmt.Sprintf(templates.success, describeWorkingDirectory(command))
	}
	return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel(command))
}

// BuildFailureMessage formats the message describing a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	standardErrorSuffix := formatStandardErrorSuffix(result.StandardError)
	if templates, known := gitTemplatesFor(command); known {
		return fmt.Sprintf(templates.failure, describeWorkingDirectory(command), result.ExitCode, standardErrorSuffix)
	}
	return fmt.Sprintf(genericFailureTemplateConstant, commandLabel(command), result.ExitCode, standardErrorSuffix)
}

// BuildExecutionFailureMessage formats the message describing a command that
// never produced a result.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := fallbackUnknownValueLabelConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel(command), failureMessage)
}

func gitTemplatesFor(command ShellCommand) (gitSubcommandMessages, bool) {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return gitSubcommandMessages{}, false
	}
	templates, known := gitMessagesBySubcommand[strings.TrimSpace(command.Details.Arguments[0])]
	return templates, known
}

func commandLabel(command ShellCommand) string {
	labelParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	label := strings.Join(labelParts, commandPartsJoinSeparatorConstant)
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
	}
	return label
}

func formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func describeWorkingDirectory(command ShellCommand) string {
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		return workingDirectory
	}
	return defaultWorkingDirectoryLabelConstant
}
