package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	markdownTitleTemplateConstant          = "# %s\n\n"
	markdownHeaderLineTemplateConstant     = "- **%s:** %s\n"
	markdownGeneratedLabelConstant         = "Generated"
	markdownCommitLabelConstant            = "Commit"
	markdownBranchLabelConstant            = "Branch"
	markdownSummaryHeadingConstant         = "## Summary\n\n"
	markdownCheckHeadingTemplateConstant   = "## %s\n\n"
	markdownStatusLineTemplateConstant     = "**Status:** %s %s: %s\n\n"
	markdownTableTitleTemplateConstant     = "### %s\n\n"
	markdownDegradedLineTemplateConstant   = "**Status:** %s degraded: %s\n\n"
	markdownNoFindingsLineConstant         = "No findings.\n\n"
	markdownSummaryCheckColumnConstant     = "Check"
	markdownSummaryStatusColumnConstant    = "Status"
	markdownSummaryMessageColumnConstant   = "Summary"
	markdownSectionSeparatorConstant       = "\n"
	markdownDegradedSummaryStatusConstant  = "degraded"
)

var markdownCategoryHeadings = map[report.CheckCategory]string{
	report.CategoryBranches: "Branches",
	report.CategoryTests:    "Tests",
	report.CategoryDocs:     "Documentation",
	report.CategoryTodos:    "Comment Markers",
	report.CategoryDeps:     "Dependencies",
	report.CategoryFiles:    "Oversized & Artifact Files",
}

// MarkdownRenderer produces a human-readable markdown report with a summary
// table followed by one detail section per check.
type MarkdownRenderer struct{}

// Render writes the markdown report to the provided writer.
func (renderer *MarkdownRenderer) Render(writer io.Writer, auditReport report.Report) error {
	if _, writeError := fmt.Fprintf(writer, markdownTitleTemplateConstant, reportTitleConstant); writeError != nil {
		return writeError
	}

	headerLines := []struct {
		label string
		value string
	}{
		{markdownGeneratedLabelConstant, auditReport.GeneratedAt.Format(generatedTimestampLayoutConstant)},
		{markdownCommitLabelConstant, auditReport.CommitHash},
		{markdownBranchLabelConstant, auditReport.BranchName},
	}
	for _, headerLine := range headerLines {
		if _, writeError := fmt.Fprintf(writer, markdownHeaderLineTemplateConstant, headerLine.label, headerLine.value); writeError != nil {
			return writeError
		}
	}
	if _, writeError := fmt.Fprint(writer, markdownSectionSeparatorConstant); writeError != nil {
		return writeError
	}

	if renderError := renderer.renderSummaryTable(writer, auditReport); renderError != nil {
		return renderError
	}

	for _, checkResult := range auditReport.CheckResults {
		if renderError := renderer.renderCheckSection(writer, checkResult); renderError != nil {
			return renderError
		}
	}

	return nil
}

func (renderer *MarkdownRenderer) renderSummaryTable(writer io.Writer, auditReport report.Report) error {
	if _, writeError := fmt.Fprint(writer, markdownSummaryHeadingConstant); writeError != nil {
		return writeError
	}

	summaryRows := make([][]string, 0, len(auditReport.CheckResults))
	for _, checkResult := range auditReport.CheckResults {
		statusCell := fmt.Sprintf("%s %s", statusIcon(checkResult.Status), checkResult.Status)
		summaryCell := checkResult.Summary
		if checkResult.Degraded() {
			statusCell = fmt.Sprintf("%s %s", statusIconWarningConstant, markdownDegradedSummaryStatusConstant)
			summaryCell = checkResult.Failure
		}
		summaryRows = append(summaryRows, []string{categoryHeading(checkResult.Category), statusCell, summaryCell})
	}

	renderMarkdownTable(writer, []string{markdownSummaryCheckColumnConstant, markdownSummaryStatusColumnConstant, markdownSummaryMessageColumnConstant}, summaryRows)
	_, writeError := fmt.Fprint(writer, markdownSectionSeparatorConstant)
	return writeError
}

func (renderer *MarkdownRenderer) renderCheckSection(writer io.Writer, checkResult report.CheckResult) error {
	if _, writeError := fmt.Fprintf(writer, markdownCheckHeadingTemplateConstant, categoryHeading(checkResult.Category)); writeError != nil {
		return writeError
	}

	if checkResult.Degraded() {
		_, writeError := fmt.Fprintf(writer, markdownDegradedLineTemplateConstant, statusIconWarningConstant, checkResult.Failure)
		return writeError
	}

	if _, writeError := fmt.Fprintf(writer, markdownStatusLineTemplateConstant, statusIcon(checkResult.Status), checkResult.Status, checkResult.Summary); writeError != nil {
		return writeError
	}

	renderedAnyTable := false
	for _, detailTable := range checkResult.Tables {
		if len(detailTable.Rows) == 0 {
			continue
		}
		renderedAnyTable = true
		if _, writeError := fmt.Fprintf(writer, markdownTableTitleTemplateConstant, detailTable.Title); writeError != nil {
			return writeError
		}
		renderMarkdownTable(writer, detailTable.Header, detailTable.Rows)
		if _, writeError := fmt.Fprint(writer, markdownSectionSeparatorConstant); writeError != nil {
			return writeError
		}
	}

	if !renderedAnyTable {
		if _, writeError := fmt.Fprint(writer, markdownNoFindingsLineConstant); writeError != nil {
			return writeError
		}
	}

	return nil
}

func categoryHeading(category report.CheckCategory) string {
	if heading, headingKnown := markdownCategoryHeadings[category]; headingKnown {
		return heading
	}
	return string(category)
}

func renderMarkdownTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("|")
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.AppendBulk(rows)
	table.Render()
}
