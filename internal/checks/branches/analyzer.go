// Package branches inspects local and remote branch health: staleness
// relative to the last commit date and merge state relative to the main branch.
package branches

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/printshop-os/repoaudit/internal/gitrepo"
	"github.com/printshop-os/repoaudit/internal/report"
)

const (
	staleBranchCriticalCountConstant   = 10
	unmergedBranchWarningCountConstant = 10

	secondsPerDayConstant = 86400

	commitDateLayoutConstant = "2006-01-02"

	branchNameFieldConstant     = "name"
	lastCommitDateFieldConstant = "lastCommitDate"
	authorFieldConstant         = "author"
	daysStaleFieldConstant      = "daysStale"
	commitsAheadFieldConstant   = "commitsAhead"
	commitsBehindFieldConstant  = "commitsBehind"
	mergedFieldConstant         = "isMerged"
	staleFieldConstant          = "isStale"

	affirmativeValueConstant = "yes"
	negativeValueConstant    = "no"

	staleBranchesTableTitleConstant    = "Stale Branches"
	unmergedBranchesTableTitleConstant = "Unmerged Branches"

	branchColumnConstant     = "Branch"
	lastCommitColumnConstant = "Last Commit"
	daysStaleColumnConstant  = "Days Stale"
	aheadColumnConstant      = "Ahead"
	behindColumnConstant     = "Behind"

	summaryTemplateConstant = "%d local and %d remote branches; %d merged, %d unmerged, %d stale"

	fetchFailureMessageConstant = "Remote fetch failed; branch data may be out of date"
)

// GitManager describes the repository operations the analyzer performs.
type GitManager interface {
	FetchRemotes(executionContext context.Context, repositoryPath string) error
	ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteName string, mainBranchName string) ([]gitrepo.BranchMetadata, error)
	ListLocalBranches(executionContext context.Context, repositoryPath string, mainBranchName string) ([]string, error)
	IsAncestor(executionContext context.Context, repositoryPath string, candidateReference string, targetReference string) (bool, error)
	CountAheadBehind(executionContext context.Context, repositoryPath string, baseReference string, branchReference string) (int, int, error)
}

// Clock supplies the current time so staleness math stays testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Settings carries the branch policy knobs.
type Settings struct {
	MainBranchName     string
	RemoteName         string
	StaleThresholdDays int
}

// Analyzer evaluates branch staleness and merge state.
type Analyzer struct {
	settings   Settings
	gitManager GitManager
	logger     *zap.Logger
	clock      Clock
}

// NewAnalyzer builds a branch analyzer. A nil logger falls back to a no-op
// logger and a nil clock falls back to the system clock.
func NewAnalyzer(settings Settings, gitManager GitManager, logger *zap.Logger, clock Clock) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Analyzer{settings: settings, gitManager: gitManager, logger: logger, clock: clock}
}

// Category identifies the check this analyzer implements.
func (analyzer *Analyzer) Category() report.CheckCategory {
	return report.CategoryBranches
}

type branchRecord struct {
	name           string
	lastCommitTime time.Time
	authorName     string
	daysStale      int
	commitsAhead   int
	commitsBehind  int
	merged         bool
	stale          bool
}

func (record branchRecord) reportRecord() report.Record {
	return report.Record{Fields: []report.Field{
		{Key: branchNameFieldConstant, Value: record.name},
		{Key: lastCommitDateFieldConstant, Value: record.lastCommitTime.Format(commitDateLayoutConstant)},
		{Key: authorFieldConstant, Value: record.authorName},
		{Key: daysStaleFieldConstant, Value: strconv.Itoa(record.daysStale)},
		{Key: commitsAheadFieldConstant, Value: strconv.Itoa(record.commitsAhead)},
		{Key: commitsBehindFieldConstant, Value: strconv.Itoa(record.commitsBehind)},
		{Key: mergedFieldConstant, Value: ternaryValue(record.merged)},
		{Key: staleFieldConstant, Value: ternaryValue(record.stale)},
	}}
}

// Analyze fetches remote state, classifies every remote branch, and reports
// staleness and merge findings.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPath string) (report.CheckResult, error) {
	fetchError := analyzer.gitManager.FetchRemotes(executionContext, repositoryPath)
	if fetchError != nil {
		analyzer.logger.Warn(fetchFailureMessageConstant, zap.String("repository", repositoryPath), zap.Error(fetchError))
	}

	localBranchNames, localListError := analyzer.gitManager.ListLocalBranches(executionContext, repositoryPath, analyzer.settings.MainBranchName)
	if localListError != nil {
		return report.CheckResult{}, fmt.Errorf("listing local branches: %w", localListError)
	}

	remoteBranches, remoteListError := analyzer.gitManager.ListRemoteBranches(executionContext, repositoryPath, analyzer.settings.RemoteName, analyzer.settings.MainBranchName)
	if remoteListError != nil {
		return report.CheckResult{}, fmt.Errorf("listing remote branches: %w", remoteListError)
	}

	mainReference := analyzer.settings.RemoteName + "/" + analyzer.settings.MainBranchName
	currentTime := analyzer.clock.Now()

	branchRecords := make([]branchRecord, 0, len(remoteBranches))
	for _, remoteBranch := range remoteBranches {
		branchReference := analyzer.settings.RemoteName + "/" + remoteBranch.Name

		merged, ancestryError := analyzer.gitManager.IsAncestor(executionContext, repositoryPath, branchReference, mainReference)
		if ancestryError != nil {
			return report.CheckResult{}, fmt.Errorf("checking ancestry for %s: %w", remoteBranch.Name, ancestryError)
		}

		commitsAhead, commitsBehind, countError := analyzer.gitManager.CountAheadBehind(executionContext, repositoryPath, mainReference, branchReference)
		if countError != nil {
			return report.CheckResult{}, fmt.Errorf("counting divergence for %s: %w", remoteBranch.Name, countError)
		}

		lastCommitTime := time.Unix(remoteBranch.CommitUnixTime, 0).UTC()
		daysStale := int(currentTime.Sub(lastCommitTime).Seconds()) / secondsPerDayConstant
		if daysStale < 0 {
			daysStale = 0
		}

		branchRecords = append(branchRecords, branchRecord{
			name:           remoteBranch.Name,
			lastCommitTime: lastCommitTime,
			authorName:     remoteBranch.AuthorName,
			daysStale:      daysStale,
			commitsAhead:   commitsAhead,
			commitsBehind:  commitsBehind,
			merged:         merged,
			stale:          daysStale >= analyzer.settings.StaleThresholdDays,
		})
	}

	sort.Slice(branchRecords, func(firstIndex int, secondIndex int) bool {
		return branchRecords[firstIndex].name < branchRecords[secondIndex].name
	})

	staleCount := 0
	unmergedCount := 0
	var staleRows [][]string
	var unmergedRows [][]string
	reportRecords := make([]report.Record, 0, len(branchRecords))
	for _, record := range branchRecords {
		reportRecords = append(reportRecords, record.reportRecord())
		if record.stale {
			staleCount++
			staleRows = append(staleRows, []string{
				record.name,
				record.lastCommitTime.Format(commitDateLayoutConstant),
				strconv.Itoa(record.daysStale),
				strconv.Itoa(record.commitsAhead),
				strconv.Itoa(record.commitsBehind),
			})
		}
		if !record.merged {
			unmergedCount++
			unmergedRows = append(unmergedRows, []string{
				record.name,
				record.lastCommitTime.Format(commitDateLayoutConstant),
				strconv.Itoa(record.commitsAhead),
				strconv.Itoa(record.commitsBehind),
			})
		}
	}

	checkStatus := report.StatusGood
	switch {
	case staleCount > staleBranchCriticalCountConstant:
		checkStatus = report.StatusCritical
	case staleCount > 0 || unmergedCount > unmergedBranchWarningCountConstant:
		checkStatus = report.StatusWarning
	}

	mergedCount := len(branchRecords) - unmergedCount
	return report.CheckResult{
		Category: report.CategoryBranches,
		Status:   checkStatus,
		Summary:  fmt.Sprintf(summaryTemplateConstant, len(localBranchNames), len(branchRecords), mergedCount, unmergedCount, staleCount),
		Records:  reportRecords,
		Tables: []report.Table{
			{
				Title:  staleBranchesTableTitleConstant,
				Header: []string{branchColumnConstant, lastCommitColumnConstant, daysStaleColumnConstant, aheadColumnConstant, behindColumnConstant},
				Rows:   staleRows,
			},
			{
				Title:  unmergedBranchesTableTitleConstant,
				Header: []string{branchColumnConstant, lastCommitColumnConstant, aheadColumnConstant, behindColumnConstant},
				Rows:   unmergedRows,
			},
		},
	}, nil
}

func ternaryValue(value bool) string {
	if value {
		return affirmativeValueConstant
	}
	return negativeValueConstant
}
