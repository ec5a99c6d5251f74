package gitrepo_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printshop-os/repoaudit/internal/execshell"
	"github.com/printshop-os/repoaudit/internal/gitrepo"
)

type stubGitExecutor struct {
	outputs  map[string]execshell.ExecutionResult
	failures map[string]error
}

func (executor stubGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := strings.Join(details.Arguments, " ")
	if failure, found := executor.failures[key]; found {
		return execshell.ExecutionResult{}, failure
	}
	if result, found := executor.outputs[key]; found {
		return result, nil
	}
	return execshell.ExecutionResult{}, fmt.Errorf("unexpected git command: %s", key)
}

func newManager(testInstance *testing.T, executor gitrepo.GitExecutor) *gitrepo.RepositoryManager {
	testInstance.Helper()
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)
	return manager
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	_, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrExecutorNotConfigured)
}

func TestIsRepository(testInstance *testing.T) {
	testCases := []struct {
		name           string
		executor       stubGitExecutor
		expectedResult bool
	}{
		{
			name: "inside_work_tree",
			executor: stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
				"rev-parse --is-inside-work-tree": {StandardOutput: "true\n"},
			}},
			expectedResult: true,
		},
		{
			name: "command_fails",
			executor: stubGitExecutor{failures: map[string]error{
				"rev-parse --is-inside-work-tree": execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 128}},
			}},
			expectedResult: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			manager := newManager(subtestInstance, testCase.executor)
			require.Equal(subtestInstance, testCase.expectedResult, manager.IsRepository(context.Background(), "/repo"))
		})
	}
}

func TestListRemoteBranchesSkipsHeadAndMain(testInstance *testing.T) {
	executor := stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
		"for-each-ref --format=%(refname:short)%09%(committerdate:unix)%09%(authorname) refs/remotes/origin": {
			StandardOutput: "origin/HEAD\t1700000000\tCI Bot\n" +
				"origin/main\t1700000000\tCI Bot\n" +
				"origin/feature/login\t1690000000\tDana Developer\n" +
				"origin/fix/typo\t1695000000\tSam Writer\n",
		},
	}}

	manager := newManager(testInstance, executor)
	remoteBranches, listError := manager.ListRemoteBranches(context.Background(), "/repo", "origin", "main")
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []gitrepo.BranchMetadata{
		{Name: "feature/login", CommitUnixTime: 1690000000, AuthorName: "Dana Developer"},
		{Name: "fix/typo", CommitUnixTime: 1695000000, AuthorName: "Sam Writer"},
	}, remoteBranches)
}

func TestListRemoteBranchesRejectsMalformedLines(testInstance *testing.T) {
	executor := stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
		"for-each-ref --format=%(refname:short)%09%(committerdate:unix)%09%(authorname) refs/remotes/origin": {
			StandardOutput: "origin/feature/login no-tabs-here\n",
		},
	}}

	manager := newManager(testInstance, executor)
	_, listError := manager.ListRemoteBranches(context.Background(), "/repo", "origin", "main")
	require.Error(testInstance, listError)
}

func TestListLocalBranchesExcludesMain(testInstance *testing.T) {
	executor := stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
		"for-each-ref --format=%(refname:short) refs/heads": {
			StandardOutput: "main\nfeature/login\nfix/typo\n",
		},
	}}

	manager := newManager(testInstance, executor)
	localBranches, listError := manager.ListLocalBranches(context.Background(), "/repo", "main")
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{"feature/login", "fix/typo"}, localBranches)
}

func TestIsAncestor(testInstance *testing.T) {
	testCases := []struct {
		name             string
		executor         stubGitExecutor
		expectedAncestor bool
		expectError      bool
	}{
		{
			name: "ancestor",
			executor: stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
				"merge-base --is-ancestor origin/feature/login origin/main": {},
			}},
			expectedAncestor: true,
		},
		{
			name: "not_ancestor_exit_one",
			executor: stubGitExecutor{failures: map[string]error{
				"merge-base --is-ancestor origin/feature/login origin/main": execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 1}},
			}},
			expectedAncestor: false,
		},
		{
			name: "unknown_reference",
			executor: stubGitExecutor{failures: map[string]error{
				"merge-base --is-ancestor origin/feature/login origin/main": execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 128}},
			}},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			manager := newManager(subtestInstance, testCase.executor)
			isAncestor, ancestryError := manager.IsAncestor(context.Background(), "/repo", "origin/feature/login", "origin/main")
			if testCase.expectError {
				require.Error(subtestInstance, ancestryError)
				return
			}
			require.NoError(subtestInstance, ancestryError)
			require.Equal(subtestInstance, testCase.expectedAncestor, isAncestor)
		})
	}
}

func TestCountAheadBehind(testInstance *testing.T) {
	executor := stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
		"rev-list --left-right --count origin/main...origin/feature/login": {StandardOutput: "3\t7\n"},
	}}

	manager := newManager(testInstance, executor)
	aheadCount, behindCount, countError := manager.CountAheadBehind(context.Background(), "/repo", "origin/main", "origin/feature/login")
	require.NoError(testInstance, countError)
	require.Equal(testInstance, 7, aheadCount)
	require.Equal(testInstance, 3, behindCount)
}

func TestCountAheadBehindRejectsMalformedOutput(testInstance *testing.T) {
	executor := stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
		"rev-list --left-right --count origin/main...origin/feature/login": {StandardOutput: "seven\n"},
	}}

	manager := newManager(testInstance, executor)
	_, _, countError := manager.CountAheadBehind(context.Background(), "/repo", "origin/main", "origin/feature/login")
	require.Error(testInstance, countError)
}

func TestIsPathTracked(testInstance *testing.T) {
	executor := stubGitExecutor{outputs: map[string]execshell.ExecutionResult{
		"ls-files -- dist":         {StandardOutput: "dist/bundle.js\n"},
		"ls-files -- node_modules": {StandardOutput: "\n"},
	}}

	manager := newManager(testInstance, executor)

	tracked, trackedError := manager.IsPathTracked(context.Background(), "/repo", "dist")
	require.NoError(testInstance, trackedError)
	require.True(testInstance, tracked)

	untracked, untrackedError := manager.IsPathTracked(context.Background(), "/repo", "node_modules")
	require.NoError(testInstance, untrackedError)
	require.False(testInstance, untracked)
}
