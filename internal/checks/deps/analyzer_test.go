package deps_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printshop-os/repoaudit/internal/checks/deps"
	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/report"
)

func writeFixtureFile(testInstance *testing.T, rootPath string, relativePath string, content string) string {
	testInstance.Helper()
	absolutePath := filepath.Join(rootPath, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
	return absolutePath
}

func newAnalyzer() *deps.Analyzer {
	return deps.NewAnalyzer(deps.Settings{}, fstree.NewWalker(nil), nil)
}

func recordByFile(checkResult report.CheckResult, manifestPath string) map[string]string {
	for _, record := range checkResult.Records {
		fields := map[string]string{}
		for _, field := range record.Fields {
			fields[field.Key] = field.Value
		}
		if fields["file"] == manifestPath {
			return fields
		}
	}
	return nil
}

func TestAnalyzePythonManifestCounting(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "services/worker/requirements.txt",
		"# pinned deps\n\nflask==2.3.0\nrequests>=2.31\ncelery!=5.0\n-r common.txt\n-e ./local\nboto3\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)

	manifestFields := recordByFile(checkResult, "services/worker/requirements.txt")
	require.Equal(testInstance, "python", manifestFields["type"])
	require.Equal(testInstance, "4", manifestFields["dependencies"])
	require.Equal(testInstance, "1", manifestFields["unpinned"])
	require.Equal(testInstance, "n/a", manifestFields["lockfile"])

	require.Equal(testInstance, report.StatusWarning, checkResult.Status)
}

func TestAnalyzeNodeManifestPinningAndLockfile(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "frontend/package.json",
		`{"dependencies":{"react":"^18.2.0","left-pad":"*"},"devDependencies":{"vitest":"latest"}}`)
	writeFixtureFile(testInstance, repositoryPath, "services/api/package.json",
		`{"dependencies":{"express":"^4.18.0"}}`)
	writeFixtureFile(testInstance, repositoryPath, "services/api/package-lock.json", `{"lockfileVersion":3}`)

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)

	frontendFields := recordByFile(checkResult, "frontend/package.json")
	require.Equal(testInstance, "node", frontendFields["type"])
	require.Equal(testInstance, "3", frontendFields["dependencies"])
	require.Equal(testInstance, "2", frontendFields["unpinned"])
	require.Equal(testInstance, "missing", frontendFields["lockfile"])

	apiFields := recordByFile(checkResult, "services/api/package.json")
	require.Equal(testInstance, "0", apiFields["unpinned"])
	require.Equal(testInstance, "package-lock.json", apiFields["lockfile"])

	unpinnedTable := checkResult.Tables[1]
	require.Len(testInstance, unpinnedTable.Rows, 2)
	require.Equal(testInstance, []string{"frontend/package.json", "left-pad", "*"}, unpinnedTable.Rows[0])
	require.Equal(testInstance, []string{"frontend/package.json", "vitest", "latest"}, unpinnedTable.Rows[1])

	require.Equal(testInstance, report.StatusWarning, checkResult.Status)
}

func TestAnalyzeStaleLockfile(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	lockfilePath := writeFixtureFile(testInstance, repositoryPath, "package-lock.json", `{"lockfileVersion":3}`)
	manifestPath := writeFixtureFile(testInstance, repositoryPath, "package.json", `{"dependencies":{"express":"^4.18.0"}}`)

	staleTime := time.Now().Add(-time.Hour)
	require.NoError(testInstance, os.Chtimes(lockfilePath, staleTime, staleTime))
	freshTime := time.Now()
	require.NoError(testInstance, os.Chtimes(manifestPath, freshTime, freshTime))

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, "yes", recordByFile(checkResult, "package.json")["lockfileStale"])
}

func TestAnalyzeMalformedNodeManifestFallsBack(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "package.json",
		"{\"dependencies\": {\"react\": \"^18.2.0\", \"left-pad\": \"*\",}\n")
	writeFixtureFile(testInstance, repositoryPath, "package-lock.json", `{}`)

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)

	manifestFields := recordByFile(checkResult, "package.json")
	require.Equal(testInstance, "2", manifestFields["dependencies"])
	require.Equal(testInstance, "1", manifestFields["unpinned"])
}

func TestAnalyzeCleanRepositoryIsGood(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "package.json", `{"dependencies":{"express":"^4.18.0"}}`)
	writeFixtureFile(testInstance, repositoryPath, "yarn.lock", "lockfile\n")
	writeFixtureFile(testInstance, repositoryPath, "requirements.txt", "flask==2.3.0\n")

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusGood, checkResult.Status)
	require.Contains(testInstance, checkResult.Summary, "2 manifests")
}

func TestAnalyzeManyUnpinnedDependenciesIsCritical(testInstance *testing.T) {
	repositoryPath := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryPath, "package.json",
		`{"dependencies":{"a":"*","b":"*","c":"*","d":"latest","e":"*","f":"*"}}`)
	writeFixtureFile(testInstance, repositoryPath, "package-lock.json", `{}`)

	checkResult, analyzeError := newAnalyzer().Analyze(context.Background(), repositoryPath)
	require.NoError(testInstance, analyzeError)
	require.Equal(testInstance, report.StatusCritical, checkResult.Status)
}
