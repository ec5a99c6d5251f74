package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	csvRegionCheckColumnConstant   = "check"
	csvRegionStatusColumnConstant  = "status"
	csvRegionSummaryColumnConstant = "summary"
	csvRegionSeparatorConstant     = "\n"
	csvDegradedStatusConstant      = "degraded"
)

// CSVRenderer emits one delimited region per check, each with its own header
// row, because the six checks carry heterogeneous record schemas.
type CSVRenderer struct{}

// Render writes the CSV report to the provided writer.
func (renderer *CSVRenderer) Render(writer io.Writer, auditReport report.Report) error {
	for checkIndex, checkResult := range auditReport.CheckResults {
		if checkIndex > 0 {
			if _, writeError := io.WriteString(writer, csvRegionSeparatorConstant); writeError != nil {
				return writeError
			}
		}
		if renderError := renderer.renderCheckRegion(writer, checkResult); renderError != nil {
			return renderError
		}
	}
	return nil
}

func (renderer *CSVRenderer) renderCheckRegion(writer io.Writer, checkResult report.CheckResult) error {
	csvWriter := csv.NewWriter(writer)

	statusValue := string(checkResult.Status)
	summaryValue := checkResult.Summary
	if checkResult.Degraded() {
		statusValue = csvDegradedStatusConstant
		summaryValue = checkResult.Failure
	}

	regionHeader := []string{csvRegionCheckColumnConstant, csvRegionStatusColumnConstant, csvRegionSummaryColumnConstant}
	if writeError := csvWriter.Write(regionHeader); writeError != nil {
		return writeError
	}
	if writeError := csvWriter.Write([]string{string(checkResult.Category), statusValue, summaryValue}); writeError != nil {
		return writeError
	}

	if len(checkResult.Records) > 0 {
		if writeError := csvWriter.Write(checkResult.Records[0].Keys()); writeError != nil {
			return writeError
		}
		for _, record := range checkResult.Records {
			if writeError := csvWriter.Write(record.Values()); writeError != nil {
				return writeError
			}
		}
	}

	csvWriter.Flush()
	if flushError := csvWriter.Error(); flushError != nil {
		return fmt.Errorf("csv region for %s: %w", checkResult.Category, flushError)
	}
	return nil
}
