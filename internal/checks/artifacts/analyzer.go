// Package artifacts detects oversized files and build or dependency artifact
// directories that were committed to version control.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	findingKindLargeFileConstant       = "large-file"
	findingKindTrackedArtifactConstant = "tracked-artifact"

	severityWarningLabelConstant  = "warning"
	severityCriticalLabelConstant = "critical"

	kindFieldConstant     = "kind"
	pathFieldConstant     = "path"
	sizeFieldConstant     = "sizeBytes"
	severityFieldConstant = "severity"

	oversizedTableTitleConstant = "Oversized Files"
	trackedTableTitleConstant   = "Tracked Artifact Directories"

	fileColumnConstant      = "File"
	sizeColumnConstant      = "Size"
	severityColumnConstant  = "Severity"
	directoryColumnConstant = "Directory"

	summaryTemplateConstant = "%d oversized files (%d critical); %d tracked artifact directories"

	bytesPerMegabyteConstant = 1048576.0

	unreadableFileInfoMessageConstant = "Skipping file with unreadable metadata"
)

// artifactDirectoryNames lists directory names whose presence in version
// control indicates an accidental commit of generated output.
var artifactDirectoryNames = map[string]bool{
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
}

// GitManager answers whether a path is tracked by version control.
type GitManager interface {
	IsPathTracked(executionContext context.Context, repositoryPath string, relativePath string) (bool, error)
}

// Settings carries the size thresholds in bytes.
type Settings struct {
	WarningSizeBytes  int64
	CriticalSizeBytes int64
}

// Analyzer locates oversized files and tracked artifact directories.
type Analyzer struct {
	settings   Settings
	walker     *fstree.Walker
	gitManager GitManager
	logger     *zap.Logger
}

// NewAnalyzer builds an artifact analyzer. A nil logger falls back to a no-op
// logger.
func NewAnalyzer(settings Settings, walker *fstree.Walker, gitManager GitManager, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{settings: settings, walker: walker, gitManager: gitManager, logger: logger}
}

// Category identifies the check this analyzer implements.
func (analyzer *Analyzer) Category() report.CheckCategory {
	return report.CategoryFiles
}

type oversizedFile struct {
	relativePath string
	sizeBytes    int64
	critical     bool
}

// Analyze walks the tree measuring file sizes and checks every artifact
// directory the walk prunes for version-control tracking.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	var oversizedFiles []oversizedFile
	var artifactDirectoryPaths []string

	walkError := analyzer.walker.WalkObserved(executionContext, repositoryPath,
		func(relativePath string, directoryEntry os.DirEntry) error {
			fileInfo, infoError := directoryEntry.Info()
			if infoError != nil {
				analyzer.logger.Warn(unreadableFileInfoMessageConstant, zap.String("path", relativePath), zap.Error(infoError))
				return nil
			}
			if fileInfo.Size() < analyzer.settings.WarningSizeBytes {
				return nil
			}
			oversizedFiles = append(oversizedFiles, oversizedFile{
				relativePath: relativePath,
				sizeBytes:    fileInfo.Size(),
				critical:     fileInfo.Size() >= analyzer.settings.CriticalSizeBytes,
			})
			return nil
		},
		func(relativePath string, directoryName string) error {
			if artifactDirectoryNames[directoryName] {
				artifactDirectoryPaths = append(artifactDirectoryPaths, relativePath)
			}
			return nil
		})
	if walkError != nil {
		return report.CheckResult{}, fmt.Errorf("walking repository tree: %w", walkError)
	}

	sort.Slice(oversizedFiles, func(firstIndex int, secondIndex int) bool {
		return oversizedFiles[firstIndex].relativePath < oversizedFiles[secondIndex].relativePath
	})
	sort.Strings(artifactDirectoryPaths)

	var trackedArtifactPaths []string
	for _, directoryPath := range artifactDirectoryPaths {
		tracked, trackingError := analyzer.gitManager.IsPathTracked(executionContext, repositoryPath, directoryPath)
		if trackingError != nil {
			return report.CheckResult{}, fmt.Errorf("checking tracking state of %s: %w", directoryPath, trackingError)
		}
		if tracked {
			trackedArtifactPaths = append(trackedArtifactPaths, directoryPath)
		}
	}

	criticalFileCount := 0
	reportRecords := make([]report.Record, 0, len(oversizedFiles)+len(trackedArtifactPaths))
	oversizedRows := make([][]string, 0, len(oversizedFiles))
	for _, oversizedEntry := range oversizedFiles {
		severityLabel := severityWarningLabelConstant
		if oversizedEntry.critical {
			severityLabel = severityCriticalLabelConstant
			criticalFileCount++
		}
		reportRecords = append(reportRecords, report.Record{Fields: []report.Field{
			{Key: kindFieldConstant, Value: findingKindLargeFileConstant},
			{Key: pathFieldConstant, Value: oversizedEntry.relativePath},
			{Key: sizeFieldConstant, Value: strconv.FormatInt(oversizedEntry.sizeBytes, 10)},
			{Key: severityFieldConstant, Value: severityLabel},
		}})
		oversizedRows = append(oversizedRows, []string{oversizedEntry.relativePath, formatMegabytes(oversizedEntry.sizeBytes), severityLabel})
	}
	trackedRows := make([][]string, 0, len(trackedArtifactPaths))
	for _, trackedPath := range trackedArtifactPaths {
		reportRecords = append(reportRecords, report.Record{Fields: []report.Field{
			{Key: kindFieldConstant, Value: findingKindTrackedArtifactConstant},
			{Key: pathFieldConstant, Value: trackedPath},
			{Key: sizeFieldConstant, Value: strconv.Itoa(0)},
			{Key: severityFieldConstant, Value: severityCriticalLabelConstant},
		}})
		trackedRows = append(trackedRows, []string{trackedPath})
	}

	checkStatus := report.StatusGood
	switch {
	case len(trackedArtifactPaths) > 0 || criticalFileCount > 0:
		checkStatus = report.StatusCritical
	case len(oversizedFiles) > 0:
		checkStatus = report.StatusWarning
	}

	return report.CheckResult{
		Category: report.CategoryFiles,
		Status:   checkStatus,
		Summary:  fmt.Sprintf(summaryTemplateConstant, len(oversizedFiles), criticalFileCount, len(trackedArtifactPaths)),
		Records:  reportRecords,
		Tables: []report.Table{
			{
				Title:  oversizedTableTitleConstant,
				Header: []string{fileColumnConstant, sizeColumnConstant, severityColumnConstant},
				Rows:   oversizedRows,
			},
			{
				Title:  trackedTableTitleConstant,
				Header: []string{directoryColumnConstant},
				Rows:   trackedRows,
			},
		},
	}, nil
}

func formatMegabytes(sizeBytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(sizeBytes)/bytesPerMegabyteConstant)
}
