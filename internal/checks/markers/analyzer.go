// Package markers scans source files for TODO-style comment markers and
// classifies them by priority.
package markers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	highPriorityCriticalCountConstant = 10
	totalMarkerWarningCountConstant   = 30

	highPriorityLabelConstant   = "high"
	normalPriorityLabelConstant = "normal"

	fileFieldConstant     = "file"
	lineFieldConstant     = "line"
	markerFieldConstant   = "marker"
	priorityFieldConstant = "priority"
	commentFieldConstant  = "comment"

	markersTableTitleConstant = "Comment Markers"

	fileColumnConstant     = "File"
	lineColumnConstant     = "Line"
	markerColumnConstant   = "Marker"
	priorityColumnConstant = "Priority"
	commentColumnConstant  = "Comment"

	summaryTemplateConstant = "%d markers (%d high priority) across %d files"

	unreadableSourceMessageConstant = "Skipping unreadable source file"
)

// markerTokens lists every recognized marker in declaration order. A line
// matching several tokens is attributed to the first one listed here.
var markerTokens = []string{"TODO", "FIXME", "BUG", "HACK", "XXX", "WARN", "NOTE"}

var highPriorityTokens = map[string]bool{"FIXME": true, "BUG": true, "HACK": true}

var markerPatterns = buildMarkerPatterns()

func buildMarkerPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(markerTokens))
	for _, markerToken := range markerTokens {
		patterns = append(patterns, regexp.MustCompile(`\b`+markerToken+`(:|\s)`))
	}
	return patterns
}

// commentLeaderRules is the ordered list of prefix-strip attempts applied to a
// matched line. Lines matching no rule are kept verbatim.
var commentLeaderRules = []struct {
	prefix string
	suffix string
}{
	{prefix: "//"},
	{prefix: "#"},
	{prefix: "/*", suffix: "*/"},
	{prefix: "--"},
	{prefix: "<!--", suffix: "-->"},
}

// Settings carries the extension allowlist the scanner honors.
type Settings struct {
	FileExtensions []string
}

// Analyzer locates comment markers across the tree.
type Analyzer struct {
	settings          Settings
	walker            *fstree.Walker
	logger            *zap.Logger
	allowedExtensions map[string]bool
}

// NewAnalyzer builds a comment-marker analyzer. A nil logger falls back to a
// no-op logger.
func NewAnalyzer(settings Settings, walker *fstree.Walker, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowedExtensions := make(map[string]bool, len(settings.FileExtensions))
	for _, fileExtension := range settings.FileExtensions {
		allowedExtensions[strings.ToLower(fileExtension)] = true
	}
	return &Analyzer{settings: settings, walker: walker, logger: logger, allowedExtensions: allowedExtensions}
}

// Category identifies the check this analyzer implements.
func (analyzer *Analyzer) Category() report.CheckCategory {
	return report.CategoryTodos
}

type markerFinding struct {
	filePath    string
	lineNumber  int
	markerToken string
	comment     string
}

// Analyze scans allowlisted files line by line for marker tokens.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	var findings []markerFinding
	filesWithMarkers := map[string]bool{}

	walkError := analyzer.walker.Walk(executionContext, repositoryPath, func(relativePath string, directoryEntry os.DirEntry) error {
		if !analyzer.allowedExtensions[strings.ToLower(filepath.Ext(directoryEntry.Name()))] {
			return nil
		}

		fileContent, readError := os.ReadFile(filepath.Join(repositoryPath, filepath.FromSlash(relativePath)))
		if readError != nil {
			analyzer.logger.Warn(unreadableSourceMessageConstant, zap.String("path", relativePath), zap.Error(readError))
			return nil
		}

		for lineIndex, lineContent := range bytes.Split(fileContent, []byte{'\n'}) {
			markerToken, matched := firstMatchingMarker(lineContent)
			if !matched {
				continue
			}
			findings = append(findings, markerFinding{
				filePath:    relativePath,
				lineNumber:  lineIndex + 1,
				markerToken: markerToken,
				comment:     cleanCommentLine(string(lineContent)),
			})
			filesWithMarkers[relativePath] = true
		}
		return nil
	})
	if walkError != nil {
		return report.CheckResult{}, fmt.Errorf("walking repository tree: %w", walkError)
	}

	sort.Slice(findings, func(firstIndex int, secondIndex int) bool {
		if findings[firstIndex].filePath != findings[secondIndex].filePath {
			return findings[firstIndex].filePath < findings[secondIndex].filePath
		}
		return findings[firstIndex].lineNumber < findings[secondIndex].lineNumber
	})

	highPriorityCount := 0
	reportRecords := make([]report.Record, 0, len(findings))
	markerRows := make([][]string, 0, len(findings))
	for _, finding := range findings {
		priorityLabel := normalPriorityLabelConstant
		if highPriorityTokens[finding.markerToken] {
			priorityLabel = highPriorityLabelConstant
			highPriorityCount++
		}
		reportRecords = append(reportRecords, report.Record{Fields: []report.Field{
			{Key: fileFieldConstant, Value: finding.filePath},
			{Key: lineFieldConstant, Value: strconv.Itoa(finding.lineNumber)},
			{Key: markerFieldConstant, Value: finding.markerToken},
			{Key: priorityFieldConstant, Value: priorityLabel},
			{Key: commentFieldConstant, Value: finding.comment},
		}})
		markerRows = append(markerRows, []string{
			finding.filePath,
			strconv.Itoa(finding.lineNumber),
			finding.markerToken,
			priorityLabel,
			finding.comment,
		})
	}

	checkStatus := report.StatusGood
	switch {
	case highPriorityCount > highPriorityCriticalCountConstant:
		checkStatus = report.StatusCritical
	case len(findings) > totalMarkerWarningCountConstant:
		checkStatus = report.StatusWarning
	}

	return report.CheckResult{
		Category: report.CategoryTodos,
		Status:   checkStatus,
		Summary:  fmt.Sprintf(summaryTemplateConstant, len(findings), highPriorityCount, len(filesWithMarkers)),
		Records:  reportRecords,
		Tables: []report.Table{
			{
				Title:  markersTableTitleConstant,
				Header: []string{fileColumnConstant, lineColumnConstant, markerColumnConstant, priorityColumnConstant, commentColumnConstant},
				Rows:   markerRows,
			},
		},
	}, nil
}

func firstMatchingMarker(lineContent []byte) (string, bool) {
	for patternIndex, markerPattern := range markerPatterns {
		if markerPattern.Match(lineContent) {
			return markerTokens[patternIndex], true
		}
	}
	return "", false
}

func cleanCommentLine(lineContent string) string {
	trimmedLine := strings.TrimSpace(lineContent)
	for _, leaderRule := range commentLeaderRules {
		if !strings.HasPrefix(trimmedLine, leaderRule.prefix) {
			continue
		}
		strippedLine := strings.TrimPrefix(trimmedLine, leaderRule.prefix)
		if len(leaderRule.suffix) > 0 {
			strippedLine = strings.TrimSuffix(strings.TrimSpace(strippedLine), leaderRule.suffix)
		}
		return strings.TrimSpace(strippedLine)
	}
	return trimmedLine
}
