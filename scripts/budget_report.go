package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/podplan/backend/internal/config"
	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/internal/services"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := models.Open(&cfg.Database)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	country := services.NewSystemConfigService(db).GetWithDefault(services.ConfigHolidayCountry, services.WeekdaysOnly)
	budget := services.NewBudgetService(db, services.NewHolidayService(), country, cfg.Budget.AtRiskThreshold)

	reports, err := budget.Report()
	if err != nil {
		fmt.Printf("Failed to build budget report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Budget report for %d projects (calendar %s):\n\n", len(reports), budget.Country())
	fmt.Printf("%-32s %-12s %10s %10s %10s %8s\n", "PROJECT", "STATUS", "BUDGET", "CONSUMED", "ALLOCATED", "USED")
	fmt.Println(strings.Repeat("-", 88))
	for _, r := range reports {
		fmt.Printf("%-32s %-12s %10.1f %10.1f %10.1f %7.1f%%\n",
			r.ProjectName, r.Status, r.BudgetManDays, r.ConsumedManDays, r.AllocatedManDays, r.PercentageUsed)
	}

	sum := budget.Summary(reports)
	fmt.Println(strings.Repeat("-", 88))
	fmt.Printf("on-track %d, at-risk %d, over-budget %d; %.1f of %.1f man-days remaining\n",
		sum.OnTrack, sum.AtRisk, sum.OverBudget, sum.TotalRemaining, sum.TotalBudget)

	if len(os.Args) > 1 && os.Args[1] == "--digest" {
		services.InitSystemLogger(db)
		scheduler := services.NewScheduler(budget, services.NewSystemLogService(db), cfg.Scheduler)
		digest, err := scheduler.RunBudgetDigest()
		if err != nil {
			fmt.Printf("Failed to record digest: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n>>> Recorded %d flagged projects in the system log\n", digest.Unhealthy)
	} else {
		fmt.Println("\nTo record flagged projects in the system log, run: go run scripts/budget_report.go --digest")
	}
}
