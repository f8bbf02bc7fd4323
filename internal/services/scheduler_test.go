package services

import (
	"testing"

	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/models"
)

func TestScheduler_RunBudgetDigest(t *testing.T) {
	logs := withSystemLogger(t)
	db := logs.db
	mustProject(t, db, "Healthy", 100, 10)
	mustProject(t, db, "Tight", 100, 85)
	mustProject(t, db, "Blown", 100, 120)

	budget := NewBudgetService(db, NewHolidayService(), WeekdaysOnly, DefaultAtRiskThreshold)
	s := NewScheduler(budget, logs, config.SchedulerConfig{})

	digest, err := s.RunBudgetDigest()
	if err != nil {
		t.Fatalf("RunBudgetDigest() error = %v", err)
	}
	if digest.TotalCount != 3 || digest.Unhealthy != 2 {
		t.Errorf("digest = %+v", digest)
	}
	if digest.Flagged[0].ProjectName != "Blown" || digest.Flagged[1].ProjectName != "Tight" {
		t.Errorf("Flagged order = %s, %s", digest.Flagged[0].ProjectName, digest.Flagged[1].ProjectName)
	}

	var warnings, infos int64
	db.Model(&models.SystemLog{}).Where("module = ? AND level = ?", "budget", "warning").Count(&warnings)
	db.Model(&models.SystemLog{}).Where("module = ? AND level = ?", "budget", "info").Count(&infos)
	if warnings != 1 || infos != 1 {
		t.Errorf("system logs warning=%d info=%d, want 1/1", warnings, infos)
	}
}

func TestScheduler_Start(t *testing.T) {
	logs := NewSystemLogService(newTestDB(t))
	budget := NewBudgetService(logs.db, NewHolidayService(), WeekdaysOnly, 0)

	disabled := NewScheduler(budget, logs, config.SchedulerConfig{})
	if err := disabled.Start(); err != nil {
		t.Fatalf("Start() with no jobs error = %v", err)
	}
	disabled.Stop()

	bad := NewScheduler(budget, logs, config.SchedulerConfig{BudgetDigestCron: "not a cron"})
	if err := bad.Start(); err == nil {
		t.Error("expected error for invalid cron expression")
	}

	ok := NewScheduler(budget, logs, config.SchedulerConfig{BudgetDigestCron: "0 7 * * 1", LogCleanupCron: "@daily"})
	if err := ok.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ok.Stop()

	var never Scheduler
	never.Stop()
}
