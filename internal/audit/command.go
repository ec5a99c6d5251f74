package audit

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/checks/artifacts"
	"github.com/printshop-os/repoaudit/internal/checks/branches"
	"github.com/printshop-os/repoaudit/internal/checks/deps"
	"github.com/printshop-os/repoaudit/internal/checks/docs"
	"github.com/printshop-os/repoaudit/internal/checks/layout"
	"github.com/printshop-os/repoaudit/internal/checks/markers"
	"github.com/printshop-os/repoaudit/internal/checks/tests"
	"github.com/printshop-os/repoaudit/internal/execshell"
	"github.com/printshop-os/repoaudit/internal/fstree"
	"github.com/printshop-os/repoaudit/internal/gitrepo"
	"github.com/printshop-os/repoaudit/internal/render"
	"github.com/printshop-os/repoaudit/internal/report"
	"github.com/printshop-os/repoaudit/internal/ui"
	flagutils "github.com/printshop-os/repoaudit/internal/utils/flags"
	pathutils "github.com/printshop-os/repoaudit/internal/utils/path"
)

const (
	commandUseConstant   = "audit [repository-path]"
	commandShortConstant = "Audit repository health"
	commandLongConstant  = "Audit inspects a git repository's branches, tests, documentation, comment markers, dependency manifests, and oversized files, then renders a health report."

	formatFlagNameConstant        = "format"
	formatFlagShorthandConstant   = "f"
	formatFlagDescriptionConstant = "report output format"

	checkFlagNameConstant          = "check"
	checkFlagUsageTemplateConstant = "run only the named check; repeatable (valid checks: %s)"

	outputFlagNameConstant      = "output"
	outputFlagShorthandConstant = "o"
	outputFlagUsageConstant     = "write the report to a file instead of standard output"

	verboseFlagNameConstant      = "verbose"
	verboseFlagShorthandConstant = "v"
	verboseFlagUsageConstant     = "log every underlying git invocation"

	noColorFlagNameConstant  = "no-color"
	noColorFlagUsageConstant = "disable colored terminal output"

	defaultRepositoryPathConstant = "."

	checkSeparatorConstant = ", "
)

// Dependencies carries the collaborators the command builder wires together.
type Dependencies struct {
	LoggerProvider        func() *zap.Logger
	ConfigurationProvider func() Configuration
	OutputWriterProvider  func() io.Writer
	ErrorWriterProvider   func() io.Writer
}

// CommandBuilder assembles the audit command.
type CommandBuilder struct {
	dependencies Dependencies
}

// NewCommandBuilder constructs a command builder over the provided dependencies.
func NewCommandBuilder(dependencies Dependencies) *CommandBuilder {
	return &CommandBuilder{dependencies: dependencies}
}

// Build returns the runnable audit command.
func (builder *CommandBuilder) Build() *cobra.Command {
	var formatFlagValue string
	var checkFlagValues []string
	var outputFlagValue string
	var verboseFlagValue bool
	var noColorFlagValue bool

	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if noColorFlagValue {
				color.NoColor = true
			}

			repositoryPath := defaultRepositoryPathConstant
			if len(arguments) > 0 {
				repositoryPath = arguments[0]
			}

			selectedCategories, selectionError := parseCategorySelectors(checkFlagValues)
			if selectionError != nil {
				return selectionError
			}

			auditService, serviceError := builder.buildService(verboseFlagValue)
			if serviceError != nil {
				return serviceError
			}

			return auditService.Run(command.Context(), Options{
				RepositoryPath: repositoryPath,
				Format:         formatFlagValue,
				Categories:     selectedCategories,
				OutputPath:     pathutils.NewHomeExpander().Expand(outputFlagValue),
			})
		},
	}

	command.Flags().StringVarP(&formatFlagValue, formatFlagNameConstant, formatFlagShorthandConstant, render.DefaultFormat(),
		flagutils.FormatChoiceUsage(render.DefaultFormat(), render.SupportedFormats(), formatFlagDescriptionConstant))
	command.Flags().StringArrayVar(&checkFlagValues, checkFlagNameConstant, nil,
		fmt.Sprintf(checkFlagUsageTemplateConstant, categoryNameList()))
	command.Flags().StringVarP(&outputFlagValue, outputFlagNameConstant, outputFlagShorthandConstant, "", outputFlagUsageConstant)
	command.Flags().BoolVarP(&verboseFlagValue, verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)
	command.Flags().BoolVar(&noColorFlagValue, noColorFlagNameConstant, false, noColorFlagUsageConstant)

	return command
}

func (builder *CommandBuilder) buildService(verbose bool) (*Service, error) {
	logger := builder.dependencies.LoggerProvider()
	configuration := builder.dependencies.ConfigurationProvider()

	commandRunner := execshell.NewOSCommandRunner()
	var shellExecutor *execshell.ShellExecutor
	var executorError error
	if verbose {
		shellExecutor, executorError = execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	} else {
		shellExecutor, executorError = execshell.NewShellExecutor(logger, commandRunner)
	}
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}

	treeWalker := fstree.NewWalker(configuration.ExcludedDirectories)
	layoutRoots := configuration.LayoutRoots()

	analyzers := buildAnalyzers(configuration, layoutRoots, treeWalker, repositoryManager, logger)
	return NewService(analyzers, repositoryManager, builder.dependencies.OutputWriterProvider(), builder.dependencies.ErrorWriterProvider(), logger, nil), nil
}

// buildAnalyzers assembles every analyzer in the fixed execution order:
// branches, tests, docs, todos, deps, files.
func buildAnalyzers(configuration Configuration, layoutRoots layout.Roots, treeWalker *fstree.Walker, repositoryManager *gitrepo.RepositoryManager, logger *zap.Logger) []Analyzer {
	return []Analyzer{
		branches.NewAnalyzer(branches.Settings{
			MainBranchName:     configuration.MainBranch,
			RemoteName:         configuration.RemoteName,
			StaleThresholdDays: configuration.StaleBranchThresholdDays,
		}, repositoryManager, logger, nil),
		tests.NewAnalyzer(tests.Settings{Roots: layoutRoots}, treeWalker, logger),
		docs.NewAnalyzer(docs.Settings{
			Roots:                layoutRoots,
			ServiceDirectoryFile: configuration.ServiceDirectoryFile,
		}, treeWalker, logger),
		markers.NewAnalyzer(markers.Settings{FileExtensions: configuration.MarkerExtensions}, treeWalker, logger),
		deps.NewAnalyzer(deps.Settings{}, treeWalker, logger),
		artifacts.NewAnalyzer(artifacts.Settings{
			WarningSizeBytes:  configuration.LargeFileWarningBytes,
			CriticalSizeBytes: configuration.LargeFileCriticalBytes,
		}, treeWalker, repositoryManager, logger),
	}
}

func parseCategorySelectors(checkSelectors []string) ([]report.CheckCategory, error) {
	var selectedCategories []report.CheckCategory
	seenCategories := map[report.CheckCategory]bool{}
	for _, checkSelector := range checkSelectors {
		parsedCategory, parseError := report.ParseCategory(checkSelector)
		if parseError != nil {
			return nil, parseError
		}
		if seenCategories[parsedCategory] {
			continue
		}
		seenCategories[parsedCategory] = true
		selectedCategories = append(selectedCategories, parsedCategory)
	}
	return selectedCategories, nil
}

func categoryNameList() string {
	categoryNames := make([]string, 0, len(report.AllCategories()))
	for _, checkCategory := range report.AllCategories() {
		categoryNames = append(categoryNames, string(checkCategory))
	}
	return strings.Join(categoryNames, checkSeparatorConstant)
}
