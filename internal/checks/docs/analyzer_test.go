package docs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printshop-os/repoaudit/internal/checks/docs"
	"github.com/printshop-os/repoaudit/internal/checks/layout"
	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

const serviceDirectoryFileNameConstant = "SERVICES.md"

func writeFixtureFile(testInstance *testing.T, rootPath string, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(rootPath, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func newAnalyzer() *docs.Analyzer {
	settings := docs.Settings{Roots: layout.DefaultRoots(), ServiceDirectoryFile: serviceDirectoryFileNameConstant}
	return docs.NewAnalyzer(settings, fstree.NewWalker(nil), nil)
}

func findingsOfType(checkResult report.CheckResult, findingType string) []string {
	var findingPaths []string
	for _, record := range checkResult.Records {
		fields := map[string]string{}
		for _, field := range record.Fields {
			fields[field.Key] = field.Value
		}
		if fields["type"] == findingType {
			findingPaths = append(findingPaths, fields["path"])
		}
	}
	return findingPaths
}

func TestAnalyzeFullyDocumentedRepositoryIsGood(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "README.md", "See docs/setup.md and the docs/README.md index for the api service.\n")
	writeFixtureFile(testInstance, repositoryPath, serviceDirectoryFileNameConstant, "## api\n")
	writeFixtureFile(testInstance, repositoryPath, "services/api/README.md", "api service\n")
	writeFixtureFile(testInstance, repositoryPath, "docs/setup.md", "setup guide\n")
	writeFixtureFile(testInstance, repositoryPath, "docs/README.md", "docs index\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.CategoryDocs, checkResult.Category)
	require.Equal(testInstance, report.StatusGood, checkResult.Status)
	require.Empty(testInstance, findingsOfType(checkResult, "orphaned-doc"))
}

func TestAnalyzeFlagsMissingReadmes(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, serviceDirectoryFileNameConstant, "api worker\n")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, "services", "api"), 0o755))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, "services", "worker"), 0o755))
	writeFixtureFile(testInstance, repositoryPath, "services/api/readme.MD", "lowercase variant counts\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusWarning, checkResult.Status)
	require.Equal(testInstance, []string{"services/worker"}, findingsOfType(checkResult, "missing-readme"))
}

func TestAnalyzeFlagsOrphanedDocuments(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "README.md", "Start with docs/setup.md.\n")
	writeFixtureFile(testInstance, repositoryPath, serviceDirectoryFileNameConstant, "no services yet\n")
	writeFixtureFile(testInstance, repositoryPath, "docs/setup.md", "referenced\n")
	writeFixtureFile(testInstance, repositoryPath, "docs/forgotten.md", "nobody links here\n")
	writeFixtureFile(testInstance, repositoryPath, "docs/guides/deep/nested.md", "below the depth cutoff\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, []string{"docs/forgotten.md"}, findingsOfType(checkResult, "orphaned-doc"))
}

func TestAnalyzeMissingServiceDirectoryFileIsCritical(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "README.md", "minimal\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusCritical, checkResult.Status)
	require.Contains(testInstance, checkResult.Summary, serviceDirectoryFileNameConstant)
}

func TestAnalyzeFlagsUnlistedServices(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, serviceDirectoryFileNameConstant, "## api\n")
	writeFixtureFile(testInstance, repositoryPath, "services/api/README.md", "api\n")
	writeFixtureFile(testInstance, repositoryPath, "services/worker/README.md", "worker\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, []string{"worker"}, findingsOfType(checkResult, "unlisted-service"))
}
