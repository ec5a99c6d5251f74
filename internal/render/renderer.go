package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	formatMarkdownStringConstant     = "markdown"
	formatJSONStringConstant         = "json"
	formatCSVStringConstant          = "csv"
	unknownFormatTemplateConstant    = "unknown output format %q (valid formats: %s)"
	formatListSeparatorConstant      = ", "
	reportTitleConstant              = "Repository Health Audit"
	statusIconGoodConstant           = "✅"
	statusIconWarningConstant        = "⚠️"
	statusIconCriticalConstant       = "❌"
	statusIconFallbackConstant       = "❔"
	generatedTimestampLayoutConstant = "2006-01-02T15:04:05Z07:00"
)

// Renderer writes a complete report in one target format.
type Renderer interface {
	Render(writer io.Writer, auditReport report.Report) error
}

// SupportedFormats lists the accepted output format identifiers.
func SupportedFormats() []string {
	return []string{formatMarkdownStringConstant, formatJSONStringConstant, formatCSVStringConstant}
}

// DefaultFormat names the format used when the caller does not request one.
func DefaultFormat() string {
	return formatMarkdownStringConstant
}

// ForFormat resolves a format identifier to its renderer.
func ForFormat(formatName string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(formatName)) {
	case formatMarkdownStringConstant:
		return &MarkdownRenderer{}, nil
	case formatJSONStringConstant:
		return &JSONRenderer{}, nil
	case formatCSVStringConstant:
		return &CSVRenderer{}, nil
	default:
		return nil, fmt.Errorf(unknownFormatTemplateConstant, formatName, strings.Join(SupportedFormats(), formatListSeparatorConstant))
	}
}

func statusIcon(status report.CheckStatus) string {
	switch status {
	case report.StatusGood:
		return statusIconGoodConstant
	case report.StatusWarning:
		return statusIconWarningConstant
	case report.StatusCritical:
		return statusIconCriticalConstant
	default:
		return statusIconFallbackConstant
	}
}
