// Package tests locates automated test files, estimates case counts, and
// flags services that carry no tests at all.
package tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/checks/layout"
	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	missingServiceWarningThresholdConstant  = 1
	missingServiceCriticalThresholdConstant = 4

	serviceFieldConstant        = "service"
	testFileCountFieldConstant  = "testFiles"
	estimatedCasesFieldConstant = "estimatedCases"
	hasTestsFieldConstant       = "hasTests"

	affirmativeValueConstant = "yes"
	negativeValueConstant    = "no"

	coverageTableTitleConstant = "Test Coverage by Service"
	missingTableTitleConstant  = "Services Missing Tests"

	serviceColumnConstant        = "Service"
	testFilesColumnConstant      = "Test Files"
	estimatedCasesColumnConstant = "Estimated Cases"

	summaryTemplateConstant = "%d test files with roughly %d cases across %d services; %d services have no tests"

	unreadableTestFileMessageConstant = "Skipping unreadable test file"
)

var javascriptTestFileSuffixes = []string{".test.ts", ".spec.ts", ".test.tsx", ".spec.tsx", ".test.js", ".spec.js", ".test.jsx", ".spec.jsx"}

var (
	javascriptCasePattern = regexp.MustCompile(`(?m)\b(?:it|test)\s*\(`)
	pythonCasePattern     = regexp.MustCompile(`(?m)^\s*def test_`)
	goCasePattern         = regexp.MustCompile(`(?m)^func Test`)
)

// Settings carries the repository layout the analyzer maps files against.
type Settings struct {
	Roots layout.Roots
}

// Analyzer aggregates test coverage per owning service.
type Analyzer struct {
	settings Settings
	walker   *fstree.Walker
	logger   *zap.Logger
}

// NewAnalyzer builds a test coverage analyzer. A nil logger falls back to a
// no-op logger.
func NewAnalyzer(settings Settings, walker *fstree.Walker, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{settings: settings, walker: walker, logger: logger}
}

// Category identifies the check this analyzer implements.
func (analyzer *Analyzer) Category() report.CheckCategory {
	return report.CategoryTests
}

type serviceCoverage struct {
	testFileCount  int
	estimatedCases int
}

// Analyze walks the tree for test files, estimates case counts, and compares
// covered services against the services the layout declares.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	coverageByService := map[string]serviceCoverage{}
	totalTestFiles := 0
	totalEstimatedCases := 0

	walkError := analyzer.walker.Walk(executionContext, repositoryPath, func(relativePath string, directoryEntry os.DirEntry) error {
		if !isTestFile(directoryEntry.Name()) {
			return nil
		}

		estimatedCases := 0
		fileContent, readError := os.ReadFile(filepath.Join(repositoryPath, filepath.FromSlash(relativePath)))
		if readError != nil {
			analyzer.logger.Warn(unreadableTestFileMessageConstant, zap.String("path", relativePath), zap.Error(readError))
		} else {
			estimatedCases = countTestCases(directoryEntry.Name(), fileContent)
		}

		serviceName := analyzer.settings.Roots.ServiceForPath(relativePath)
		coverage := coverageByService[serviceName]
		coverage.testFileCount++
		coverage.estimatedCases += estimatedCases
		coverageByService[serviceName] = coverage

		totalTestFiles++
		totalEstimatedCases += estimatedCases
		return nil
	})
	if walkError != nil {
		return report.CheckResult{}, fmt.Errorf("walking repository tree: %w", walkError)
	}

	knownServices := analyzer.settings.Roots.KnownServices(repositoryPath)

	serviceNames := make([]string, 0, len(coverageByService)+len(knownServices))
	seenNames := map[string]bool{}
	for _, serviceName := range knownServices {
		serviceNames = append(serviceNames, serviceName)
		seenNames[serviceName] = true
	}
	for serviceName := range coverageByService {
		if !seenNames[serviceName] {
			serviceNames = append(serviceNames, serviceName)
		}
	}
	sort.Strings(serviceNames)

	var missingServiceNames []string
	var coverageRows [][]string
	var missingRows [][]string
	reportRecords := make([]report.Record, 0, len(serviceNames))
	for _, serviceName := range serviceNames {
		coverage, hasTests := coverageByService[serviceName]
		reportRecords = append(reportRecords, report.Record{Fields: []report.Field{
			{Key: serviceFieldConstant, Value: serviceName},
			{Key: testFileCountFieldConstant, Value: strconv.Itoa(coverage.testFileCount)},
			{Key: estimatedCasesFieldConstant, Value: strconv.Itoa(coverage.estimatedCases)},
			{Key: hasTestsFieldConstant, Value: ternaryValue(hasTests)},
		}})
		if hasTests {
			coverageRows = append(coverageRows, []string{serviceName, strconv.Itoa(coverage.testFileCount), strconv.Itoa(coverage.estimatedCases)})
			continue
		}
		missingServiceNames = append(missingServiceNames, serviceName)
		missingRows = append(missingRows, []string{serviceName})
	}

	coveredServiceCount := len(coverageByService)
	return report.CheckResult{
		Category: report.CategoryTests,
		Status:   report.Classify(len(missingServiceNames), missingServiceWarningThresholdConstant, missingServiceCriticalThresholdConstant),
		Summary:  fmt.Sprintf(summaryTemplateConstant, totalTestFiles, totalEstimatedCases, coveredServiceCount, len(missingServiceNames)),
		Records:  reportRecords,
		Tables: []report.Table{
			{
				Title:  coverageTableTitleConstant,
				Header: []string{serviceColumnConstant, testFilesColumnConstant, estimatedCasesColumnConstant},
				Rows:   coverageRows,
			},
			{
				Title:  missingTableTitleConstant,
				Header: []string{serviceColumnConstant},
				Rows:   missingRows,
			},
		},
	}, nil
}

func isTestFile(fileName string) bool {
	for _, suffix := range javascriptTestFileSuffixes {
		if strings.HasSuffix(fileName, suffix) {
			return true
		}
	}
	if strings.HasSuffix(fileName, "_test.py") {
		return true
	}
	if strings.HasPrefix(fileName, "test_") && strings.HasSuffix(fileName, ".py") {
		return true
	}
	if strings.HasSuffix(fileName, "_test.go") || strings.HasSuffix(fileName, ".test.go") {
		return true
	}
	return false
}

func countTestCases(fileName string, fileContent []byte) int {
	switch {
	case strings.HasSuffix(fileName, ".py"):
		return len(pythonCasePattern.FindAll(fileContent, -1))
	case strings.HasSuffix(fileName, ".go"):
		return len(goCasePattern.FindAll(fileContent, -1))
	default:
		return len(javascriptCasePattern.FindAll(fileContent, -1))
	}
}

func ternaryValue(value bool) string {
	if value {
		return affirmativeValueConstant
	}
	return negativeValueConstant
}
