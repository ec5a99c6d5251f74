// Package docs audits README coverage, orphaned documentation files, and the
// root service-directory file.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/checks/layout"
	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	missingReadmeCriticalCountConstant = 5
	orphanedDocWarningCountConstant    = 10

	orphanCandidateMaximumDepthConstant = 2

	readmeBaseNameConstant         = "readme"
	markdownExtensionConstant      = ".md"
	repositoryRootLabelConstant    = "."
	pathSeparatorConstant          = "/"
	findingTypeMissingReadme       = "missing-readme"
	findingTypeOrphanedDocument    = "orphaned-doc"
	findingTypeUnlistedService     = "unlisted-service"
	findingTypeFieldConstant       = "type"
	findingPathFieldConstant       = "path"
	findingDetailFieldConstant     = "detail"
	missingReadmeDetailConstant    = "directory has no README"
	orphanedDocumentDetailConstant = "not referenced by any root markdown file"
	unlistedServiceDetailConstant  = "service missing from the service directory file"

	missingReadmeTableTitleConstant    = "Directories Missing a README"
	orphanedDocsTableTitleConstant     = "Orphaned Documentation"
	unlistedServicesTableTitleConstant = "Services Missing From the Service Directory"

	directoryColumnConstant = "Directory"
	fileColumnConstant      = "File"
	serviceColumnConstant   = "Service"

	summaryTemplateConstant                     = "%d README files; %d directories missing a README; %d orphaned docs; %d services unlisted"
	absentServiceDirectorySummarySuffixConstant = "; service directory file %s is missing"

	unreadableDocumentMessageConstant = "Skipping unreadable markdown file"
)

// Settings carries the repository layout plus the required service-directory
// file name.
type Settings struct {
	Roots                layout.Roots
	ServiceDirectoryFile string
}

// Analyzer evaluates documentation coverage.
type Analyzer struct {
	settings Settings
	walker   *fstree.Walker
	logger   *zap.Logger
}

// NewAnalyzer builds a documentation analyzer. A nil logger falls back to a
// no-op logger.
func NewAnalyzer(settings Settings, walker *fstree.Walker, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{settings: settings, walker: walker, logger: logger}
}

// Category identifies the check this analyzer implements.
func (analyzer *Analyzer) Category() report.CheckCategory {
	return report.CategoryDocs
}

// Analyze walks the tree for README files, orphan candidates under the docs
// root, and the required service-directory file.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	var readmePaths []string
	var orphanCandidatePaths []string
	var rootMarkdownPaths []string
	docsRootPrefix := analyzer.settings.Roots.DocsRoot + pathSeparatorConstant

	walkError := analyzer.walker.Walk(executionContext, repositoryPath, func(relativePath string, directoryEntry os.DirEntry) error {
		fileName := directoryEntry.Name()
		if isReadmeName(fileName) {
			readmePaths = append(readmePaths, relativePath)
		}
		if strings.HasPrefix(relativePath, docsRootPrefix) && pathDepth(relativePath) <= orphanCandidateMaximumDepthConstant {
			orphanCandidatePaths = append(orphanCandidatePaths, relativePath)
		}
		if pathDepth(relativePath) == 1 && strings.EqualFold(filepath.Ext(fileName), markdownExtensionConstant) {
			rootMarkdownPaths = append(rootMarkdownPaths, relativePath)
		}
		return nil
	})
	if walkError != nil {
		return report.CheckResult{}, fmt.Errorf("walking repository tree: %w", walkError)
	}

	directoriesWithReadme := map[string]bool{}
	for _, readmePath := range readmePaths {
		directoriesWithReadme[parentDirectory(readmePath)] = true
	}

	var missingReadmeDirectories []string
	for _, documentedDirectory := range analyzer.settings.Roots.ServiceDirectories(repositoryPath) {
		if !directoriesWithReadme[documentedDirectory] {
			missingReadmeDirectories = append(missingReadmeDirectories, documentedDirectory)
		}
	}

	rootMarkdownContent := analyzer.concatenateFiles(repositoryPath, rootMarkdownPaths)
	var orphanedDocumentPaths []string
	for _, candidatePath := range orphanCandidatePaths {
		if !strings.Contains(rootMarkdownContent, fstree.BaseName(candidatePath)) {
			orphanedDocumentPaths = append(orphanedDocumentPaths, candidatePath)
		}
	}
	sort.Strings(orphanedDocumentPaths)

	serviceDirectoryPresent, unlistedServiceNames := analyzer.inspectServiceDirectory(repositoryPath)

	reportRecords := make([]report.Record, 0, len(missingReadmeDirectories)+len(orphanedDocumentPaths)+len(unlistedServiceNames))
	var missingReadmeRows [][]string
	for _, directoryPath := range missingReadmeDirectories {
		reportRecords = append(reportRecords, findingRecord(findingTypeMissingReadme, directoryPath, missingReadmeDetailConstant))
		missingReadmeRows = append(missingReadmeRows, []string{directoryPath})
	}
	var orphanedRows [][]string
	for _, documentPath := range orphanedDocumentPaths {
		reportRecords = append(reportRecords, findingRecord(findingTypeOrphanedDocument, documentPath, orphanedDocumentDetailConstant))
		orphanedRows = append(orphanedRows, []string{documentPath})
	}
	var unlistedRows [][]string
	for _, serviceName := range unlistedServiceNames {
		reportRecords = append(reportRecords, findingRecord(findingTypeUnlistedService, serviceName, unlistedServiceDetailConstant))
		unlistedRows = append(unlistedRows, []string{serviceName})
	}

	checkStatus := report.StatusGood
	switch {
	case len(missingReadmeDirectories) > missingReadmeCriticalCountConstant || !serviceDirectoryPresent:
		checkStatus = report.StatusCritical
	case len(missingReadmeDirectories) > 0 || len(orphanedDocumentPaths) > orphanedDocWarningCountConstant:
		checkStatus = report.StatusWarning
	}

	checkSummary := fmt.Sprintf(summaryTemplateConstant, len(readmePaths), len(missingReadmeDirectories), len(orphanedDocumentPaths), len(unlistedServiceNames))
	if !serviceDirectoryPresent {
		checkSummary += fmt.Sprintf(absentServiceDirectorySummarySuffixConstant, analyzer.settings.ServiceDirectoryFile)
	}

	return report.CheckResult{
		Category: report.CategoryDocs,
		Status:   checkStatus,
		Summary:  checkSummary,
		Records:  reportRecords,
		Tables: []report.Table{
			{Title: missingReadmeTableTitleConstant, Header: []string{directoryColumnConstant}, Rows: missingReadmeRows},
			{Title: orphanedDocsTableTitleConstant, Header: []string{fileColumnConstant}, Rows: orphanedRows},
			{Title: unlistedServicesTableTitleConstant, Header: []string{serviceColumnConstant}, Rows: unlistedRows},
		},
	}, nil
}

func (analyzer *Analyzer) concatenateFiles(repositoryPath string, relativePaths []string) string {
	var contentBuilder strings.Builder
	for _, relativePath := range relativePaths {
		fileContent, readError := os.ReadFile(filepath.Join(repositoryPath, filepath.FromSlash(relativePath)))
		if readError != nil {
			analyzer.logger.Warn(unreadableDocumentMessageConstant, zap.String("path", relativePath), zap.Error(readError))
			continue
		}
		contentBuilder.Write(fileContent)
		contentBuilder.WriteByte('\n')
	}
	return contentBuilder.String()
}

func (analyzer *Analyzer) inspectServiceDirectory(repositoryPath string) (bool, []string) {
	directoryFileContent, readError := os.ReadFile(filepath.Join(repositoryPath, filepath.FromSlash(analyzer.settings.ServiceDirectoryFile)))
	if readError != nil {
		return false, nil
	}

	directoryFileText := string(directoryFileContent)
	var unlistedServiceNames []string
	servicesRootPath := filepath.Join(repositoryPath, filepath.FromSlash(analyzer.settings.Roots.ServicesRoot))
	directoryEntries, listError := os.ReadDir(servicesRootPath)
	if listError != nil {
		return true, nil
	}
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		if !strings.Contains(directoryFileText, directoryEntry.Name()) {
			unlistedServiceNames = append(unlistedServiceNames, directoryEntry.Name())
		}
	}
	sort.Strings(unlistedServiceNames)
	return true, unlistedServiceNames
}

func findingRecord(findingType string, findingPath string, findingDetail string) report.Record {
	return report.Record{Fields: []report.Field{
		{Key: findingTypeFieldConstant, Value: findingType},
		{Key: findingPathFieldConstant, Value: findingPath},
		{Key: findingDetailFieldConstant, Value: findingDetail},
	}}
}

func isReadmeName(fileName string) bool {
	lowerName := strings.ToLower(fileName)
	if lowerName == readmeBaseNameConstant {
		return true
	}
	return strings.HasPrefix(lowerName, readmeBaseNameConstant+".")
}

func pathDepth(relativePath string) int {
	return strings.Count(relativePath, pathSeparatorConstant) + 1
}

func parentDirectory(relativePath string) string {
	lastSeparatorIndex := strings.LastIndex(relativePath, pathSeparatorConstant)
	if lastSeparatorIndex < 0 {
		return repositoryRootLabelConstant
	}
	return relativePath[:lastSeparatorIndex]
}
