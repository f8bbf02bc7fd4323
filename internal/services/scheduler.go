package services

import (
	"fmt"

	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic budget digest and system log cleanup.
type Scheduler struct {
	budget *BudgetService
	logs   *SystemLogService
	cfg    config.SchedulerConfig
	cron   *cron.Cron
}

func NewScheduler(budget *BudgetService, logs *SystemLogService, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{budget: budget, logs: logs, cfg: cfg}
}

// BudgetDigest is the outcome of one digest run.
type BudgetDigest struct {
	Summary    BudgetSummary  `json:"summary"`
	Flagged    []BudgetReport `json:"flagged"`
	Unhealthy  int            `json:"unhealthy"`
	TotalCount int            `json:"totalCount"`
}

// Start registers the jobs. An empty cron expression disables that job.
func (s *Scheduler) Start() error {
	s.cron = cron.New()

	if s.cfg.BudgetDigestCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.BudgetDigestCron, func() {
			if _, err := s.RunBudgetDigest(); err != nil {
				logger.Error().Err(err).Msg("budget digest failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule budget digest %q: %w", s.cfg.BudgetDigestCron, err)
		}
	}

	if s.cfg.LogCleanupCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.LogCleanupCron, s.logs.RunCleanup); err != nil {
			return fmt.Errorf("schedule log cleanup %q: %w", s.cfg.LogCleanupCron, err)
		}
	}

	s.cron.Start()
	logger.Info().Str("budget_digest", s.cfg.BudgetDigestCron).Str("log_cleanup", s.cfg.LogCleanupCron).
		Msg("scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunBudgetDigest computes the budget report and records every at-risk or over-budget project
// in the system log.
func (s *Scheduler) RunBudgetDigest() (*BudgetDigest, error) {
	reports, err := s.budget.Report()
	if err != nil {
		return nil, err
	}

	digest := &BudgetDigest{
		Summary:    s.budget.Summary(reports),
		Flagged:    make([]BudgetReport, 0),
		TotalCount: len(reports),
	}
	for _, r := range reports {
		if r.Status == BudgetOnTrack {
			continue
		}
		digest.Flagged = append(digest.Flagged, r)

		msg := fmt.Sprintf("Project %q is %s: %.1f of %.1f man-days consumed (%.1f%%)",
			r.ProjectName, r.Status, r.ConsumedManDays, r.BudgetManDays, r.PercentageUsed)
		if r.Status == BudgetOverBudget {
			LogWarning("budget", "digest", msg, nil, "", "", r)
		} else {
			LogInfo("budget", "digest", msg, nil, "", "", r)
		}
	}
	digest.Unhealthy = len(digest.Flagged)

	logger.Info().Int("count", digest.TotalCount).Int("at_risk", digest.Summary.AtRisk).
		Int("over_budget", digest.Summary.OverBudget).Msg("budget digest completed")
	return digest, nil
}
