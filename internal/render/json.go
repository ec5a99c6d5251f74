package render

import (
	"encoding/json"
	"io"

	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	jsonIndentConstant        = "  "
	jsonTrailingNewlineString = "\n"
)

type jsonReportDocument struct {
	Title       string            `json:"title"`
	GeneratedAt string            `json:"generatedAt"`
	CommitHash  string            `json:"commitHash"`
	BranchName  string            `json:"branchName"`
	Checks      []jsonCheckResult `json:"checks"`
}

type jsonCheckResult struct {
	Category string          `json:"category"`
	Status   string          `json:"status"`
	Summary  string          `json:"summary"`
	Error    string          `json:"error,omitempty"`
	Records  []report.Record `json:"records"`
}

// JSONRenderer produces a machine-readable report wrapping a header around
// an array of self-describing per-check objects.
type JSONRenderer struct{}

// Render writes the JSON report to the provided writer.
func (renderer *JSONRenderer) Render(writer io.Writer, auditReport report.Report) error {
	document := jsonReportDocument{
		Title:       reportTitleConstant,
		GeneratedAt: auditReport.GeneratedAt.Format(generatedTimestampLayoutConstant),
		CommitHash:  auditReport.CommitHash,
		BranchName:  auditReport.BranchName,
		Checks:      make([]jsonCheckResult, 0, len(auditReport.CheckResults)),
	}

	for _, checkResult := range auditReport.CheckResults {
		records := checkResult.Records
		if records == nil {
			records = []report.Record{}
		}
		document.Checks = append(document.Checks, jsonCheckResult{
			Category: string(checkResult.Category),
			Status:   string(checkResult.Status),
			Summary:  checkResult.Summary,
			Error:    checkResult.Failure,
			Records:  records,
		})
	}

	encodedDocument, marshalError := json.MarshalIndent(document, "", jsonIndentConstant)
	if marshalError != nil {
		return marshalError
	}

	if _, writeError := writer.Write(encodedDocument); writeError != nil {
		return writeError
	}
	_, writeError := io.WriteString(writer, jsonTrailingNewlineString)
	return writeError
}
