package report_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	unknownCheckIdentifierConstant = "bogus"
)

func TestAllCategoriesOrder(testInstance *testing.T) {
	expectedOrder := []report.CheckCategory{
		report.CategoryBranches,
		report.CategoryTests,
		report.CategoryDocs,
		report.CategoryTodos,
		report.CategoryDeps,
		report.CategoryFiles,
	}
	require.Equal(testInstance, expectedOrder, report.AllCategories())
}

func TestParseCategory(testInstance *testing.T) {
	testCases := []struct {
		name             string
		candidate        string
		expectedCategory report.CheckCategory
		expectError      bool
	}{
		{name: "exact_identifier", candidate: "branches", expectedCategory: report.CategoryBranches},
		{name: "uppercase_identifier", candidate: "DEPS", expectedCategory: report.CategoryDeps},
		{name: "surrounding_whitespace", candidate: " todos ", expectedCategory: report.CategoryTodos},
		{name: "unknown_identifier", candidate: unknownCheckIdentifierConstant, expectError: true},
		{name: "empty_identifier", candidate: "", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			parsedCategory, parseError := report.ParseCategory(testCase.candidate)
			if testCase.expectError {
				require.Error(subtestInstance, parseError)
				for _, validCategory := range report.AllCategories() {
					require.Contains(subtestInstance, parseError.Error(), string(validCategory))
				}
				return
			}
			require.NoError(subtestInstance, parseError)
			require.Equal(subtestInstance, testCase.expectedCategory, parsedCategory)
		})
	}
}

func TestClassify(testInstance *testing.T) {
	testCases := []struct {
		name              string
		findingCount      int
		warningThreshold  int
		criticalThreshold int
		expectedStatus    report.CheckStatus
	}{
		{name: "zero_findings_good", findingCount: 0, warningThreshold: 1, criticalThreshold: 4, expectedStatus: report.StatusGood},
		{name: "below_critical_warning", findingCount: 2, warningThreshold: 1, criticalThreshold: 4, expectedStatus: report.StatusWarning},
		{name: "at_critical_threshold", findingCount: 4, warningThreshold: 1, criticalThreshold: 4, expectedStatus: report.StatusCritical},
		{name: "above_critical_threshold", findingCount: 9, warningThreshold: 1, criticalThreshold: 4, expectedStatus: report.StatusCritical},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedStatus, report.Classify(testCase.findingCount, testCase.warningThreshold, testCase.criticalThreshold))
		})
	}
}

func TestRecordMarshalJSONPreservesFieldOrder(testInstance *testing.T) {
	record := report.Record{Fields: []report.Field{
		{Key: "zebra", Value: "1"},
		{Key: "alpha", Value: "two, three"},
		{Key: "quote", Value: `say "hi"`},
	}}

	encoded, marshalError := json.Marshal(record)
	require.NoError(testInstance, marshalError)
	require.Equal(testInstance, `{"zebra":"1","alpha":"two, three","quote":"say \"hi\""}`, string(encoded))

	var decoded map[string]string
	require.NoError(testInstance, json.Unmarshal(encoded, &decoded))
	require.Len(testInstance, decoded, 3)
}

func TestCheckResultDegraded(testInstance *testing.T) {
	require.False(testInstance, report.CheckResult{}.Degraded())
	require.True(testInstance, report.CheckResult{Failure: "timed out"}.Degraded())
}
