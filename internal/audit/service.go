package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/render"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	perCheckTimeoutConstant = 30 * time.Second

	notGitRepositoryTemplateConstant = "%s is not a git repository (or git is unavailable)"

	degradedSummaryConstant            = "check did not complete"
	degradedDiagnosticTemplateConstant = "warning: %s check failed: %v\n"
	writtenReportTemplateConstant      = "Report written to %s\n"

	unknownRevisionValueConstant = "unknown"

	checkStartedMessageConstant   = "Running check"
	checkFinishedMessageConstant  = "Check finished"
	checkFailedMessageConstant    = "Check failed"
	headResolutionMessageConstant = "Could not resolve repository head"

	checkLogFieldConstant  = "check"
	statusLogFieldConstant = "status"

	outputFileCreationTemplateConstant = "creating output file: %w"
)

// RepositoryInspector resolves the repository identity stamped onto reports.
type RepositoryInspector interface {
	IsRepository(executionContext context.Context, repositoryPath string) bool
	HeadCommitHash(executionContext context.Context, repositoryPath string) (string, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
}

// Analyzer is one self-contained audit dimension.
type Analyzer interface {
	Category() report.CheckCategory
	Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error)
}

// Clock supplies report timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options selects what a single audit run produces.
type Options struct {
	RepositoryPath string
	Format         string
	Categories     []report.CheckCategory
	OutputPath     string
}

// Service orchestrates the configured analyzers and renders their findings.
type Service struct {
	analyzers           []Analyzer
	repositoryInspector RepositoryInspector
	outputWriter        io.Writer
	errorWriter         io.Writer
	logger              *zap.Logger
	clock               Clock
	checkTimeout        time.Duration
}

// NewService builds an audit service over the provided analyzers. A nil
// logger falls back to a no-op logger and a nil clock to the system clock.
func NewService(analyzers []Analyzer, repositoryInspector RepositoryInspector, outputWriter io.Writer, errorWriter io.Writer, logger *zap.Logger, clock Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{
		analyzers:           analyzers,
		repositoryInspector: repositoryInspector,
		outputWriter:        outputWriter,
		errorWriter:         errorWriter,
		logger:              logger,
		clock:               clock,
		checkTimeout:        perCheckTimeoutConstant,
	}
}

// Run executes the selected checks in their fixed declaration order and
// renders the assembled report. A failing check degrades its own section
// while the remaining checks still run; only environment and usage problems
// surface as errors.
func (service *Service) Run(executionContext context.Context, options Options) error {
	selectedRenderer, rendererError := render.ForFormat(options.Format)
	if rendererError != nil {
		return rendererError
	}

	if !service.repositoryInspector.IsRepository(executionContext, options.RepositoryPath) {
		return fmt.Errorf(notGitRepositoryTemplateConstant, options.RepositoryPath)
	}

	commitHash, commitError := service.repositoryInspector.HeadCommitHash(executionContext, options.RepositoryPath)
	if commitError != nil {
		service.logger.Warn(headResolutionMessageConstant, zap.Error(commitError))
		commitHash = unknownRevisionValueConstant
	}
	branchName, branchError := service.repositoryInspector.CurrentBranch(executionContext, options.RepositoryPath)
	if branchError != nil {
		service.logger.Warn(headResolutionMessageConstant, zap.Error(branchError))
		branchName = unknownRevisionValueConstant
	}

	assembledReport := report.Report{
		GeneratedAt: service.clock.Now(),
		CommitHash:  commitHash,
		BranchName:  branchName,
	}

	for _, selectedAnalyzer := range service.selectAnalyzers(options.Categories) {
		assembledReport.CheckResults = append(assembledReport.CheckResults, service.runCheck(executionContext, selectedAnalyzer, options.RepositoryPath))
	}

	return service.writeReport(selectedRenderer, assembledReport, options.OutputPath)
}

// selectAnalyzers filters the configured analyzers down to the requested
// categories while preserving the fixed execution order. An empty selection
// keeps every analyzer.
func (service *Service) selectAnalyzers(requestedCategories []report.CheckCategory) []Analyzer {
	if len(requestedCategories) == 0 {
		return service.analyzers
	}

	requestedSet := make(map[report.CheckCategory]bool, len(requestedCategories))
	for _, requestedCategory := range requestedCategories {
		requestedSet[requestedCategory] = true
	}

	var selectedAnalyzers []Analyzer
	for _, configuredAnalyzer := range service.analyzers {
		if requestedSet[configuredAnalyzer.Category()] {
			selectedAnalyzers = append(selectedAnalyzers, configuredAnalyzer)
		}
	}
	return selectedAnalyzers
}

func (service *Service) runCheck(executionContext context.Context, selectedAnalyzer Analyzer, repositoryPath string) report.CheckResult {
	checkCategory := selectedAnalyzer.Category()
	service.logger.Debug(checkStartedMessageConstant, zap.String(checkLogFieldConstant, string(checkCategory)))

	checkContext, cancelCheck := context.WithTimeout(executionContext, service.checkTimeout)
	defer cancelCheck()

	checkResult, checkError := selectedAnalyzer.Analyze(checkContext, repositoryPath)
	if checkError != nil {
		service.logger.Error(checkFailedMessageConstant, zap.String(checkLogFieldConstant, string(checkCategory)), zap.Error(checkError))
		fmt.Fprintf(service.errorWriter, degradedDiagnosticTemplateConstant, color.YellowString(string(checkCategory)), checkError)
		return report.CheckResult{
			Category: checkCategory,
			Status:   report.StatusWarning,
			Summary:  degradedSummaryConstant,
			Failure:  checkError.Error(),
		}
	}

	service.logger.Debug(checkFinishedMessageConstant, zap.String(checkLogFieldConstant, string(checkCategory)), zap.String(statusLogFieldConstant, string(checkResult.Status)))
	return checkResult
}

func (service *Service) writeReport(selectedRenderer render.Renderer, assembledReport report.Report, outputPath string) error {
	if len(outputPath) == 0 {
		return selectedRenderer.Render(service.outputWriter, assembledReport)
	}

	outputFile, createError := os.Create(outputPath)
	if createError != nil {
		return fmt.Errorf(outputFileCreationTemplateConstant, createError)
	}
	defer func() {
		_ = outputFile.Close()
	}()

	if renderError := selectedRenderer.Render(outputFile, assembledReport); renderError != nil {
		return renderError
	}

	fmt.Fprintf(service.errorWriter, writtenReportTemplateConstant, color.GreenString(outputPath))
	return nil
}
