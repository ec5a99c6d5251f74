package artifacts_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printshop-os/repoaudit/internal/checks/artifacts"
	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	warningSizeBytesConstant  = 100
	criticalSizeBytesConstant = 1000
)

type stubGitManager struct {
	trackedPaths map[string]bool
}

func (manager stubGitManager) IsPathTracked(executionContext context.Context, repositoryPath string, relativePath string) (bool, error) {
	return manager.trackedPaths[relativePath], nil
}

func writeFixtureFile(testInstance *testing.T, rootPath string, relativePath string, sizeBytes int) {
	testInstance.Helper()
	absolutePath := filepath.Join(rootPath, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(strings.Repeat("x", sizeBytes)), 0o644))
}

func newAnalyzer(gitManager artifacts.GitManager) *artifacts.Analyzer {
	settings := artifacts.Settings{WarningSizeBytes: warningSizeBytesConstant, CriticalSizeBytes: criticalSizeBytesConstant}
	return artifacts.NewAnalyzer(settings, fstree.NewWalker(nil), gitManager, nil)
}

func recordFields(record report.Record) map[string]string {
	fields := map[string]string{}
	for _, field := range record.Fields {
		fields[field.Key] = field.Value
	}
	return fields
}

func TestAnalyzeSmallTreeIsGood(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "main.go", 40)

	checkResult, analyzeError := newAnalyzer(stubGitManager{}).Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.CategoryFiles, checkResult.Category)
	require.Equal(testInstance, report.StatusGood, checkResult.Status)
	require.Empty(testInstance, checkResult.Records)
}

func TestAnalyzeClassifiesOversizedFiles(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "assets/banner.psd", 500)
	writeFixtureFile(testInstance, repositoryPath, "assets/video.mov", 2000)
	writeFixtureFile(testInstance, repositoryPath, "main.go", 10)

	checkResult, analyzeError := newAnalyzer(stubGitManager{}).Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusCritical, checkResult.Status)
	require.Len(testInstance, checkResult.Records, 2)

	bannerFields := recordFields(checkResult.Records[0])
	require.Equal(testInstance, "large-file", bannerFields["kind"])
	require.Equal(testInstance, "assets/banner.psd", bannerFields["path"])
	require.Equal(testInstance, "500", bannerFields["sizeBytes"])
	require.Equal(testInstance, "warning", bannerFields["severity"])

	videoFields := recordFields(checkResult.Records[1])
	require.Equal(testInstance, "critical", videoFields["severity"])

	require.Contains(testInstance, checkResult.Summary, "2 oversized files (1 critical)")
}

func TestAnalyzeWarningOnlyOversizedFile(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "report.pdf", 150)

	checkResult, analyzeError := newAnalyzer(stubGitManager{}).Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusWarning, checkResult.Status)
}

func TestAnalyzeTrackedArtifactDirectoryIsCritical(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "frontend/dist/bundle.js", 10)
	writeFixtureFile(testInstance, repositoryPath, "node_modules/left-pad/index.js", 10)

	gitManager := stubGitManager{trackedPaths: map[string]bool{"frontend/dist": true}}
	checkResult, analyzeError := newAnalyzer(gitManager).Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusCritical, checkResult.Status)

	require.Len(testInstance, checkResult.Records, 1)
	trackedFields := recordFields(checkResult.Records[0])
	require.Equal(testInstance, "tracked-artifact", trackedFields["kind"])
	require.Equal(testInstance, "frontend/dist", trackedFields["path"])

	trackedTable := checkResult.Tables[1]
	require.Equal(testInstance, [][]string{{"frontend/dist"}}, trackedTable.Rows)
}

func TestAnalyzeIgnoredArtifactDirectoryIsGood(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "node_modules/left-pad/index.js", 10)

	checkResult, analyzeError := newAnalyzer(stubGitManager{}).Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusGood, checkResult.Status)
}
