package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	categoryBranchesStringConstant     = "branches"
	categoryTestsStringConstant        = "tests"
	categoryDocsStringConstant         = "docs"
	categoryTodosStringConstant        = "todos"
	categoryDepsStringConstant         = "deps"
	categoryFilesStringConstant        = "files"
	statusGoodStringConstant           = "good"
	statusWarningStringConstant        = "warning"
	statusCriticalStringConstant       = "critical"
	unknownCategoryTemplateConstant    = "unknown check %q (valid checks: %s)"
	categoryListSeparatorConstant      = ", "
	recordObjectOpenConstant           = "{"
	recordObjectCloseConstant          = "}"
	recordFieldSeparatorConstant       = ","
	recordKeyValueSeparatorConstant    = ":"
)

// CheckCategory identifies one audit dimension.
type CheckCategory string

// The six audit categories in fixed execution order.
const (
	CategoryBranches CheckCategory = CheckCategory(categoryBranchesStringConstant)
	CategoryTests    CheckCategory = CheckCategory(categoryTestsStringConstant)
	CategoryDocs     CheckCategory = CheckCategory(categoryDocsStringConstant)
	CategoryTodos    CheckCategory = CheckCategory(categoryTodosStringConstant)
	CategoryDeps     CheckCategory = CheckCategory(categoryDepsStringConstant)
	CategoryFiles    CheckCategory = CheckCategory(categoryFilesStringConstant)
)

// AllCategories returns every audit category in its fixed execution order.
func AllCategories() []CheckCategory {
	return []CheckCategory{
		CategoryBranches,
		CategoryTests,
		CategoryDocs,
		CategoryTodos,
		CategoryDeps,
		CategoryFiles,
	}
}

// ParseCategory resolves a user-supplied check identifier to a CheckCategory.
func ParseCategory(candidate string) (CheckCategory, error) {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	for _, category := range AllCategories() {
		if normalizedCandidate == string(category) {
			return category, nil
		}
	}

	validIdentifiers := make([]string, 0, len(AllCategories()))
	for _, category := range AllCategories() {
		validIdentifiers = append(validIdentifiers, string(category))
	}

	return "", fmt.Errorf(unknownCategoryTemplateConstant, candidate, strings.Join(validIdentifiers, categoryListSeparatorConstant))
}

// CheckStatus classifies the severity of a check outcome.
type CheckStatus string

// Supported check statuses.
const (
	StatusGood     CheckStatus = CheckStatus(statusGoodStringConstant)
	StatusWarning  CheckStatus = CheckStatus(statusWarningStringConstant)
	StatusCritical CheckStatus = CheckStatus(statusCriticalStringConstant)
)

// Classify maps a finding count onto a status. Zero findings are good, counts
// at or above criticalThreshold are critical, and every other non-zero count
// is a warning. The warning threshold is carried for callers that layer
// category-specific policies on top of this primitive.
func Classify(findingCount int, warningThreshold int, criticalThreshold int) CheckStatus {
	switch {
	case findingCount == 0:
		return StatusGood
	case findingCount >= criticalThreshold:
		return StatusCritical
	default:
		return StatusWarning
	}
}

// Field is one key/value pair inside a Record.
type Field struct {
	Key   string
	Value string
}

// Record is an ordered list of fields; the schema differs per check category
// but stays uniform within one category.
type Record struct {
	Fields []Field
}

// Keys returns the record field keys in declaration order.
func (record Record) Keys() []string {
	keys := make([]string, 0, len(record.Fields))
	for _, field := range record.Fields {
		keys = append(keys, field.Key)
	}
	return keys
}

// Values returns the record field values in declaration order.
func (record Record) Values() []string {
	values := make([]string, 0, len(record.Fields))
	for _, field := range record.Fields {
		values = append(values, field.Value)
	}
	return values
}

// MarshalJSON renders the record as a JSON object preserving field order.
func (record Record) MarshalJSON() ([]byte, error) {
	var objectBuffer bytes.Buffer
	objectBuffer.WriteString(recordObjectOpenConstant)

	for fieldIndex, field := range record.Fields {
		if fieldIndex > 0 {
			objectBuffer.WriteString(recordFieldSeparatorConstant)
		}

		encodedKey, keyError := json.Marshal(field.Key)
		if keyError != nil {
			return nil, keyError
		}
		encodedValue, valueError := json.Marshal(field.Value)
		if valueError != nil {
			return nil, valueError
		}

		objectBuffer.Write(encodedKey)
		objectBuffer.WriteString(recordKeyValueSeparatorConstant)
		objectBuffer.Write(encodedValue)
	}

	objectBuffer.WriteString(recordObjectCloseConstant)
	return objectBuffer.Bytes(), nil
}

// Table is a presentational detail table derived from check findings.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// CheckResult is the uniform outcome of one check analyzer.
type CheckResult struct {
	Category CheckCategory
	Status   CheckStatus
	Summary  string
	Records  []Record
	Tables   []Table
	Failure  string
}

// Degraded reports whether the check failed to complete and carries no findings.
func (result CheckResult) Degraded() bool {
	return len(result.Failure) > 0
}

// Report juxtaposes independent check results; no composite score is computed.
type Report struct {
	GeneratedAt  time.Time
	CommitHash   string
	BranchName   string
	CheckResults []CheckResult
}
