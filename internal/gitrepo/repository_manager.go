package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/printshop-os/repoaudit/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant  = "git executor not configured"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitIsInsideWorkTreeFlagConstant       = "--is-inside-work-tree"
	gitAbbrevRefFlagConstant              = "--abbrev-ref"
	gitHeadReferenceConstant              = "HEAD"
	gitTrueOutputConstant                 = "true"
	gitFetchSubcommandConstant            = "fetch"
	gitFetchAllFlagConstant               = "--all"
	gitFetchPruneFlagConstant             = "--prune"
	gitQuietFlagConstant                  = "--quiet"
	gitForEachRefSubcommandConstant       = "for-each-ref"
	gitBranchListFormatFlagConstant       = "--format=%(refname:short)%09%(committerdate:unix)%09%(authorname)"
	gitBranchNameFormatFlagConstant       = "--format=%(refname:short)"
	gitRemoteReferencePrefixConstant      = "refs/remotes/"
	gitLocalReferencePrefixConstant       = "refs/heads"
	gitMergeBaseSubcommandConstant        = "merge-base"
	gitIsAncestorFlagConstant             = "--is-ancestor"
	gitRevListSubcommandConstant          = "rev-list"
	gitLeftRightFlagConstant              = "--left-right"
	gitCountFlagConstant                  = "--count"
	gitLSFilesSubcommandConstant          = "ls-files"
	gitPathspecSeparatorConstant          = "--"
	gitReferenceFieldSeparatorConstant    = "\t"
	gitSymmetricDifferenceTemplate        = "%s...%s"
	gitRemoteHeadSuffixConstant           = "/HEAD"
	branchListParseErrorTemplateConstant  = "unable to parse branch list line %q"
	divergenceParseErrorTemplateConstant  = "unable to parse divergence counts %q"
	ancestryExitCodeNotAncestorConstant   = 1
	expectedBranchListFieldCountConstant  = 3
	expectedDivergenceFieldCountConstant  = 2
	remoteBranchSeparatorConstant         = "/"
	newlineConstant                       = "\n"
)

// ErrExecutorNotConfigured reports construction without a git executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitExecutor abstracts git command execution for repository inspection.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// BranchMetadata captures per-branch facts read from the git reference store.
type BranchMetadata struct {
	Name           string
	CommitUnixTime int64
	AuthorName     string
}

// RepositoryManager exposes read-only git repository inspection operations.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsRepository reports whether the provided path sits inside a git work tree.
func (manager *RepositoryManager) IsRepository(executionContext context.Context, repositoryPath string) bool {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return false
	}

	return strings.TrimSpace(executionResult.StandardOutput) == gitTrueOutputConstant
}

// HeadCommitHash resolves the commit hash the repository HEAD points at.
func (manager *RepositoryManager) HeadCommitHash(executionContext context.Context, repositoryPath string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// CurrentBranch resolves the checked-out branch name, or HEAD when detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// FetchRemotes refreshes all remote references. Callers treat failures as non-fatal.
func (manager *RepositoryManager) FetchRemotes(executionContext context.Context, repositoryPath string) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, gitFetchAllFlagConstant, gitFetchPruneFlagConstant, gitQuietFlagConstant},
		WorkingDirectory: repositoryPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// ListRemoteBranches enumerates branches under the named remote, excluding the
// remote HEAD pseudo-reference and the configured main branch.
func (manager *RepositoryManager) ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteName string, mainBranchName string) ([]BranchMetadata, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitForEachRefSubcommandConstant,
			gitBranchListFormatFlagConstant,
			gitRemoteReferencePrefixConstant + remoteName,
		},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, executionError
	}

	var branches []BranchMetadata
	for _, line := range strings.Split(executionResult.StandardOutput, newlineConstant) {
		trimmedLine := strings.TrimRight(line, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}

		fields := strings.SplitN(trimmedLine, gitReferenceFieldSeparatorConstant, expectedBranchListFieldCountConstant)
		if len(fields) < expectedBranchListFieldCountConstant {
			return nil, fmt.Errorf(branchListParseErrorTemplateConstant, trimmedLine)
		}

		referenceName := strings.TrimSpace(fields[0])
		if referenceName == remoteName+gitRemoteHeadSuffixConstant {
			continue
		}

		branchName := strings.TrimPrefix(referenceName, remoteName+remoteBranchSeparatorConstant)
		if branchName == mainBranchName {
			continue
		}

		commitUnixTime, parseError := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if parseError != nil {
			return nil, fmt.Errorf(branchListParseErrorTemplateConstant, trimmedLine)
		}

		branches = append(branches, BranchMetadata{
			Name:           branchName,
			CommitUnixTime: commitUnixTime,
			AuthorName:     strings.TrimSpace(fields[2]),
		})
	}

	return branches, nil
}

// ListLocalBranches enumerates local branch names excluding the configured main branch.
func (manager *RepositoryManager) ListLocalBranches(executionContext context.Context, repositoryPath string, mainBranchName string) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitForEachRefSubcommandConstant,
			gitBranchNameFormatFlagConstant,
			gitLocalReferencePrefixConstant,
		},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, executionError
	}

	var branchNames []string
	for _, line := range strings.Split(executionResult.StandardOutput, newlineConstant) {
		branchName := strings.TrimSpace(line)
		if len(branchName) == 0 || branchName == mainBranchName {
			continue
		}
		branchNames = append(branchNames, branchName)
	}

	return branchNames, nil
}

// IsAncestor reports whether candidateReference is an ancestor of targetReference.
func (manager *RepositoryManager) IsAncestor(executionContext context.Context, repositoryPath string, candidateReference string, targetReference string) (bool, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitMergeBaseSubcommandConstant,
			gitIsAncestorFlagConstant,
			candidateReference,
			targetReference,
		},
		WorkingDirectory: repositoryPath,
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError == nil {
		return true, nil
	}

	commandFailure := execshell.CommandFailedError{}
	if errors.As(executionError, &commandFailure) && commandFailure.ExitCode() == ancestryExitCodeNotAncestorConstant {
		return false, nil
	}

	return false, executionError
}

// CountAheadBehind computes how many commits branchReference holds that
// baseReference lacks (ahead) and the symmetric counterpart (behind).
func (manager *RepositoryManager) CountAheadBehind(executionContext context.Context, repositoryPath string, baseReference string, branchReference string) (int, int, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitRevListSubcommandConstant,
			gitLeftRightFlagConstant,
			gitCountFlagConstant,
			fmt.Sprintf(gitSymmetricDifferenceTemplate, baseReference, branchReference),
		},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return 0, 0, executionError
	}

	counts := strings.Fields(strings.TrimSpace(executionResult.StandardOutput))
	if len(counts) != expectedDivergenceFieldCountConstant {
		return 0, 0, fmt.Errorf(divergenceParseErrorTemplateConstant, executionResult.StandardOutput)
	}

	behindCount, behindParseError := strconv.Atoi(counts[0])
	if behindParseError != nil {
		return 0, 0, fmt.Errorf(divergenceParseErrorTemplateConstant, executionResult.StandardOutput)
	}

	aheadCount, aheadParseError := strconv.Atoi(counts[1])
	if aheadParseError != nil {
		return 0, 0, fmt.Errorf(divergenceParseErrorTemplateConstant, executionResult.StandardOutput)
	}

	return aheadCount, behindCount, nil
}

// IsPathTracked reports whether any file below relativePath is tracked in version control.
func (manager *RepositoryManager) IsPathTracked(executionContext context.Context, repositoryPath string, relativePath string) (bool, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitLSFilesSubcommandConstant,
			gitPathspecSeparatorConstant,
			relativePath,
		},
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return false, executionError
	}

	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}
