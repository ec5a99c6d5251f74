// Package deps audits dependency manifests: declared counts, unpinned
// versions, and lockfile presence and freshness for Node manifests.
package deps

import (
	"context"
	"encoding/json"
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
	missingLockfileCriticalCountConstant = 3
	unpinnedCriticalCountConstant        = 5

	nodeManifestNameConstant        = "package.json"
	pythonManifestPrefixConstant    = "requirements"
	pythonManifestExtensionConstant = ".txt"

	manifestTypeNodeConstant   = "node"
	manifestTypePythonConstant = "python"

	wildcardVersionConstant = "*"
	latestVersionConstant   = "latest"

	notApplicableValueConstant   = "n/a"
	missingLockfileValueConstant = "missing"
	affirmativeValueConstant     = "yes"
	negativeValueConstant        = "no"

	manifestFieldConstant        = "file"
	manifestTypeFieldConstant    = "type"
	dependencyCountFieldConstant = "dependencies"
	unpinnedCountFieldConstant   = "unpinned"
	lockfileFieldConstant        = "lockfile"
	lockfileStaleFieldConstant   = "lockfileStale"

	manifestsTableTitleConstant = "Dependency Manifests"
	unpinnedTableTitleConstant  = "Unpinned Dependencies"

	fileColumnConstant         = "File"
	typeColumnConstant         = "Type"
	dependenciesColumnConstant = "Dependencies"
	unpinnedColumnConstant     = "Unpinned"
	lockfileColumnConstant     = "Lockfile"
	packageColumnConstant      = "Package"
	versionColumnConstant      = "Version"

	summaryTemplateConstant = "%d manifests declare %d dependencies; %d unpinned; %d missing lockfiles"

	unreadableManifestMessageConstant = "Skipping unreadable manifest"
	malformedManifestMessageConstant  = "Manifest is not valid JSON; falling back to pattern matching"

	requirementsDirectivePrefixShortInclude = "-r"
	requirementsDirectivePrefixEditable     = "-e"
	requirementsCommentPrefixConstant       = "#"
)

// lockfileNamesByPriority orders candidate lockfiles; the first one present
// alongside a manifest wins.
var lockfileNamesByPriority = []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "bun.lockb"}

var versionOperatorCharacters = "=<>!"

var jsonDependencyPairPattern = regexp.MustCompile(`"([^"\n]+)"\s*:\s*"([^"\n]*)"`)

// Settings is reserved for future tuning knobs; the analyzer currently has none.
type Settings struct{}

// Analyzer inspects dependency manifests across the tree.
type Analyzer struct {
	settings Settings
	walker   *fstree.Walker
	logger   *zap.Logger
}

// NewAnalyzer builds a dependency analyzer. A nil logger falls back to a no-op
// logger.
func NewAnalyzer(settings Settings, walker *fstree.Walker, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{settings: settings, walker: walker, logger: logger}
}

// Category identifies the check this analyzer implements.
func (analyzer *Analyzer) Category() report.CheckCategory {
	return report.CategoryDeps
}

type manifestFinding struct {
	relativePath    string
	manifestType    string
	dependencyCount int
	unpinnedEntries []unpinnedDependency
	lockfileName    string
	lockfileMissing bool
	lockfileStale   bool
}

type unpinnedDependency struct {
	packageName     string
	declaredVersion string
}

// Analyze walks the tree for Python and Node manifests and inspects each one.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	var findings []manifestFinding

	walkError := analyzer.walker.Walk(executionContext, repositoryPath, func(relativePath string, directoryEntry os.DirEntry) error {
		fileName := directoryEntry.Name()
		switch {
		case fileName == nodeManifestNameConstant:
			findings = append(findings, analyzer.inspectNodeManifest(repositoryPath, relativePath))
		case isPythonManifestName(fileName):
			findings = append(findings, analyzer.inspectPythonManifest(repositoryPath, relativePath))
		}
		return nil
	})
	if walkError != nil {
		return report.CheckResult{}, fmt.Errorf("walking repository tree: %w", walkError)
	}

	sort.Slice(findings, func(firstIndex int, secondIndex int) bool {
		return findings[firstIndex].relativePath < findings[secondIndex].relativePath
	})

	totalDependencyCount := 0
	totalUnpinnedCount := 0
	missingLockfileCount := 0
	reportRecords := make([]report.Record, 0, len(findings))
	manifestRows := make([][]string, 0, len(findings))
	var unpinnedRows [][]string
	for _, finding := range findings {
		totalDependencyCount += finding.dependencyCount
		totalUnpinnedCount += len(finding.unpinnedEntries)
		if finding.lockfileMissing {
			missingLockfileCount++
		}

		lockfileValue := notApplicableValueConstant
		staleValue := notApplicableValueConstant
		if finding.manifestType == manifestTypeNodeConstant {
			lockfileValue = finding.lockfileName
			if finding.lockfileMissing {
				lockfileValue = missingLockfileValueConstant
			}
			staleValue = ternaryValue(finding.lockfileStale)
		}

		reportRecords = append(reportRecords, report.Record{Fields: []report.Field{
			{Key: manifestFieldConstant, Value: finding.relativePath},
			{Key: manifestTypeFieldConstant, Value: finding.manifestType},
			{Key: dependencyCountFieldConstant, Value: strconv.Itoa(finding.dependencyCount)},
			{Key: unpinnedCountFieldConstant, Value: strconv.Itoa(len(finding.unpinnedEntries))},
			{Key: lockfileFieldConstant, Value: lockfileValue},
			{Key: lockfileStaleFieldConstant, Value: staleValue},
		}})
		manifestRows = append(manifestRows, []string{
			finding.relativePath,
			finding.manifestType,
			strconv.Itoa(finding.dependencyCount),
			strconv.Itoa(len(finding.unpinnedEntries)),
			lockfileValue,
		})
		for _, unpinnedEntry := range finding.unpinnedEntries {
			unpinnedRows = append(unpinnedRows, []string{finding.relativePath, unpinnedEntry.packageName, unpinnedEntry.declaredVersion})
		}
	}

	checkStatus := report.StatusGood
	switch {
	case missingLockfileCount > missingLockfileCriticalCountConstant || totalUnpinnedCount > unpinnedCriticalCountConstant:
		checkStatus = report.StatusCritical
	case missingLockfileCount > 0 || totalUnpinnedCount > 0:
		checkStatus = report.StatusWarning
	}

	return report.CheckResult{
		Category: report.CategoryDeps,
		Status:   checkStatus,
		Summary:  fmt.Sprintf(summaryTemplateConstant, len(findings), totalDependencyCount, totalUnpinnedCount, missingLockfileCount),
		Records:  reportRecords,
		Tables: []report.Table{
			{
				Title:  manifestsTableTitleConstant,
				Header: []string{fileColumnConstant, typeColumnConstant, dependenciesColumnConstant, unpinnedColumnConstant, lockfileColumnConstant},
				Rows:   manifestRows,
			},
			{
				Title:  unpinnedTableTitleConstant,
				Header: []string{fileColumnConstant, packageColumnConstant, versionColumnConstant},
				Rows:   unpinnedRows,
			},
		},
	}, nil
}

type nodeManifestDocument struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (analyzer *Analyzer) inspectNodeManifest(repositoryPath string, relativePath string) manifestFinding {
	finding := manifestFinding{relativePath: relativePath, manifestType: manifestTypeNodeConstant}

	manifestAbsolutePath := filepath.Join(repositoryPath, filepath.FromSlash(relativePath))
	manifestContent, readError := os.ReadFile(manifestAbsolutePath)
	if readError != nil {
		analyzer.logger.Warn(unreadableManifestMessageConstant, zap.String("path", relativePath), zap.Error(readError))
		return finding
	}

	var manifestDocument nodeManifestDocument
	if unmarshalError := json.Unmarshal(manifestContent, &manifestDocument); unmarshalError != nil {
		analyzer.logger.Warn(malformedManifestMessageConstant, zap.String("path", relativePath), zap.Error(unmarshalError))
		manifestDocument = fallbackNodeManifestScan(manifestContent)
	}

	packageNames := make([]string, 0, len(manifestDocument.Dependencies)+len(manifestDocument.DevDependencies))
	declaredVersions := make(map[string]string, len(manifestDocument.Dependencies)+len(manifestDocument.DevDependencies))
	for packageName, declaredVersion := range manifestDocument.Dependencies {
		packageNames = append(packageNames, packageName)
		declaredVersions[packageName] = declaredVersion
	}
	for packageName, declaredVersion := range manifestDocument.DevDependencies {
		if _, alreadySeen := declaredVersions[packageName]; alreadySeen {
			continue
		}
		packageNames = append(packageNames, packageName)
		declaredVersions[packageName] = declaredVersion
	}
	sort.Strings(packageNames)

	finding.dependencyCount = len(packageNames)
	for _, packageName := range packageNames {
		declaredVersion := declaredVersions[packageName]
		if declaredVersion == wildcardVersionConstant || strings.EqualFold(declaredVersion, latestVersionConstant) {
			finding.unpinnedEntries = append(finding.unpinnedEntries, unpinnedDependency{packageName: packageName, declaredVersion: declaredVersion})
		}
	}

	manifestDirectory := filepath.Dir(manifestAbsolutePath)
	finding.lockfileMissing = true
	for _, lockfileName := range lockfileNamesByPriority {
		lockfileInfo, statError := os.Stat(filepath.Join(manifestDirectory, lockfileName))
		if statError != nil {
			continue
		}
		finding.lockfileMissing = false
		finding.lockfileName = lockfileName
		if manifestInfo, manifestStatError := os.Stat(manifestAbsolutePath); manifestStatError == nil {
			finding.lockfileStale = manifestInfo.ModTime().After(lockfileInfo.ModTime())
		}
		break
	}
	return finding
}

// fallbackNodeManifestScan extracts dependency pairs from the dependencies and
// devDependencies blocks of a manifest that failed JSON parsing. It is a
// documented heuristic: it scans key/value string pairs up to the next closing
// brace.
func fallbackNodeManifestScan(manifestContent []byte) nodeManifestDocument {
	manifestText := string(manifestContent)
	return nodeManifestDocument{
		Dependencies:    scanDependencyBlock(manifestText, `"dependencies"`),
		DevDependencies: scanDependencyBlock(manifestText, `"devDependencies"`),
	}
}

func scanDependencyBlock(manifestText string, blockKey string) map[string]string {
	blockStart := strings.Index(manifestText, blockKey)
	if blockStart < 0 {
		return nil
	}
	openBraceIndex := strings.Index(manifestText[blockStart:], "{")
	if openBraceIndex < 0 {
		return nil
	}
	blockBody := manifestText[blockStart+openBraceIndex:]
	closeBraceIndex := strings.Index(blockBody, "}")
	if closeBraceIndex >= 0 {
		blockBody = blockBody[:closeBraceIndex]
	}

	dependencyPairs := map[string]string{}
	for _, pairMatch := range jsonDependencyPairPattern.FindAllStringSubmatch(blockBody, -1) {
		dependencyPairs[pairMatch[1]] = pairMatch[2]
	}
	return dependencyPairs
}

func (analyzer *Analyzer) inspectPythonManifest(repositoryPath string, relativePath string) manifestFinding {
	finding := manifestFinding{relativePath: relativePath, manifestType: manifestTypePythonConstant}

	manifestContent, readError := os.ReadFile(filepath.Join(repositoryPath, filepath.FromSlash(relativePath)))
	if readError != nil {
		analyzer.logger.Warn(unreadableManifestMessageConstant, zap.String("path", relativePath), zap.Error(readError))
		return finding
	}

	for _, rawLine := range strings.Split(string(manifestContent), "\n") {
		requirementLine := strings.TrimSpace(rawLine)
		if len(requirementLine) == 0 || strings.HasPrefix(requirementLine, requirementsCommentPrefixConstant) {
			continue
		}
		if strings.HasPrefix(requirementLine, requirementsDirectivePrefixShortInclude) || strings.HasPrefix(requirementLine, requirementsDirectivePrefixEditable) {
			continue
		}
		finding.dependencyCount++
		if !strings.ContainsAny(requirementLine, versionOperatorCharacters) {
			finding.unpinnedEntries = append(finding.unpinnedEntries, unpinnedDependency{packageName: requirementLine, declaredVersion: wildcardVersionConstant})
		}
	}
	return finding
}

func isPythonManifestName(fileName string) bool {
	return strings.HasPrefix(fileName, pythonManifestPrefixConstant) && strings.HasSuffix(fileName, pythonManifestExtensionConstant)
}

func ternaryValue(value bool) string {
	if value {
		return affirmativeValueConstant
	}
	return negativeValueConstant
}
