package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printshop-os/repoaudit/internal/audit"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	testRepositoryPathConstant = "/repo"
	testCommitHashConstant     = "0a1b2c3d"
	testBranchNameConstant     = "main"
)

type stubInspector struct {
	insideRepository bool
	commitHash       string
	branchName       string
	headError        error
}

func (inspector stubInspector) IsRepository(executionContext context.Context, repositoryPath string) bool {
	return inspector.insideRepository
}

func (inspector stubInspector) HeadCommitHash(executionContext context.Context, repositoryPath string) (string, error) {
	return inspector.commitHash, inspector.headError
}

func (inspector stubInspector) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	return inspector.branchName, inspector.headError
}

type stubAnalyzer struct {
	category     report.CheckCategory
	result       report.CheckResult
	analyzeError error
	invoked      *bool
}

func (analyzer stubAnalyzer) Category() report.CheckCategory {
	return analyzer.category
}

func (analyzer stubAnalyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	if analyzer.invoked != nil {
		*analyzer.invoked = true
	}
	if analyzer.analyzeError != nil {
		return report.CheckResult{}, analyzer.analyzeError
	}
	return analyzer.result, nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
}

func healthyAnalyzer(category report.CheckCategory) stubAnalyzer {
	return stubAnalyzer{
		category: category,
		result: report.CheckResult{
			Category: category,
			Status:   report.StatusGood,
			Summary:  "all clear",
		},
	}
}

func TestRunRejectsUnknownFormat(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	service := audit.NewService(nil, stubInspector{insideRepository: true}, &outputBuffer, &errorBuffer, nil, fixedClock{})

	runError := service.Run(context.Background(), audit.Options{RepositoryPath: testRepositoryPathConstant, Format: "xml"})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "unknown output format")
}

func TestRunRejectsNonRepository(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	service := audit.NewService(nil, stubInspector{}, &outputBuffer, &errorBuffer, nil, fixedClock{})

	runError := service.Run(context.Background(), audit.Options{RepositoryPath: testRepositoryPathConstant, Format: "markdown"})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "not a git repository")
}

func TestRunExecutesChecksInFixedOrder(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	inspector := stubInspector{insideRepository: true, commitHash: testCommitHashConstant, branchName: testBranchNameConstant}

	analyzers := make([]audit.Analyzer, 0, len(report.AllCategories()))
	for _, checkCategory := range report.AllCategories() {
		analyzers = append(analyzers, healthyAnalyzer(checkCategory))
	}

	service := audit.NewService(analyzers, inspector, &outputBuffer, &errorBuffer, nil, fixedClock{})
	runError := service.Run(context.Background(), audit.Options{RepositoryPath: testRepositoryPathConstant, Format: "json"})
	require.NoError(testInstance, runError)

	var document struct {
		CommitHash string `json:"commitHash"`
		Checks     []struct {
			Category string `json:"category"`
		} `json:"checks"`
	}
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &document))
	require.Equal(testInstance, testCommitHashConstant, document.CommitHash)
	require.Len(testInstance, document.Checks, len(report.AllCategories()))
	for categoryIndex, checkCategory := range report.AllCategories() {
		require.Equal(testInstance, string(checkCategory), document.Checks[categoryIndex].Category)
	}
}

func TestRunFiltersSelectedChecks(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	inspector := stubInspector{insideRepository: true, commitHash: testCommitHashConstant, branchName: testBranchNameConstant}

	branchesInvoked := false
	depsInvoked := false
	branchesAnalyzer := healthyAnalyzer(report.CategoryBranches)
	branchesAnalyzer.invoked = &branchesInvoked
	depsAnalyzer := healthyAnalyzer(report.CategoryDeps)
	depsAnalyzer.invoked = &depsInvoked

	service := audit.NewService([]audit.Analyzer{branchesAnalyzer, depsAnalyzer}, inspector, &outputBuffer, &errorBuffer, nil, fixedClock{})
	runError := service.Run(context.Background(), audit.Options{
		RepositoryPath: testRepositoryPathConstant,
		Format:         "json",
		Categories:     []report.CheckCategory{report.CategoryDeps},
	})
	require.NoError(testInstance, runError)
	require.False(testInstance, branchesInvoked)
	require.True(testInstance, depsInvoked)
}

func TestRunIsolatesFailingCheck(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	inspector := stubInspector{insideRepository: true, commitHash: testCommitHashConstant, branchName: testBranchNameConstant}

	failingAnalyzer := stubAnalyzer{category: report.CategoryBranches, analyzeError: errors.New("remote exploded")}
	survivingAnalyzer := healthyAnalyzer(report.CategoryDeps)

	service := audit.NewService([]audit.Analyzer{failingAnalyzer, survivingAnalyzer}, inspector, &outputBuffer, &errorBuffer, nil, fixedClock{})
	runError := service.Run(context.Background(), audit.Options{RepositoryPath: testRepositoryPathConstant, Format: "json"})
	require.NoError(testInstance, runError)

	var document struct {
		Checks []struct {
			Category string `json:"category"`
			Status   string `json:"status"`
			Error    string `json:"error"`
			Summary  string `json:"summary"`
		} `json:"checks"`
	}
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &document))
	require.Len(testInstance, document.Checks, 2)
	require.Equal(testInstance, "warning", document.Checks[0].Status)
	require.Contains(testInstance, document.Checks[0].Error, "remote exploded")
	require.Equal(testInstance, "good", document.Checks[1].Status)

	require.Contains(testInstance, errorBuffer.String(), "remote exploded")
}

func TestRunWritesReportToFile(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	inspector := stubInspector{insideRepository: true, commitHash: testCommitHashConstant, branchName: testBranchNameConstant}
	outputPath := filepath.Join(testInstance.TempDir(), "audit.md")

	service := audit.NewService([]audit.Analyzer{healthyAnalyzer(report.CategoryDeps)}, inspector, &outputBuffer, &errorBuffer, nil, fixedClock{})
	runError := service.Run(context.Background(), audit.Options{
		RepositoryPath: testRepositoryPathConstant,
		Format:         "markdown",
		OutputPath:     outputPath,
	})
	require.NoError(testInstance, runError)

	writtenReport, readError := os.ReadFile(outputPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(writtenReport), "# Repository Health Audit")
	require.Empty(testInstance, outputBuffer.String())
	require.Contains(testInstance, errorBuffer.String(), outputPath)
}

func TestRunContinuesWhenHeadResolutionFails(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	inspector := stubInspector{insideRepository: true, headError: errors.New("detached state")}

	service := audit.NewService([]audit.Analyzer{healthyAnalyzer(report.CategoryDeps)}, inspector, &outputBuffer, &errorBuffer, nil, fixedClock{})
	runError := service.Run(context.Background(), audit.Options{RepositoryPath: testRepositoryPathConstant, Format: "json"})
	require.NoError(testInstance, runError)

	var document struct {
		CommitHash string `json:"commitHash"`
		BranchName string `json:"branchName"`
	}
	require.NoError(testInstance, json.Unmarshal(outputBuffer.Bytes(), &document))
	require.Equal(testInstance, "unknown", document.CommitHash)
	require.Equal(testInstance, "unknown", document.BranchName)
}
