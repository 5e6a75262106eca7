// Package jobs runs the scheduled sweeps over every operator's book.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/mcclellann/jama/pkg/media"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/overdue"
	"github.com/mcclellann/jama/pkg/report"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner owns the cron scheduler and the jobs it triggers.
type Runner struct {
	cron    *cron.Cron
	users   store.UserStore
	book    *ledger.Ledger
	reports *report.Service
	archive media.Store
	logger  *logrus.Logger
	timeout time.Duration
}

func NewRunner(users store.UserStore, book *ledger.Ledger, reports *report.Service, archive media.Store, loc *time.Location, logger *logrus.Logger) *Runner {
	return &Runner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		users:   users,
		book:    book,
		reports: reports,
		archive: archive,
		logger:  logger,
		timeout: 10 * time.Minute,
	}
}

// Schedule registers the jobs. An empty spec leaves that job off.
func (r *Runner) Schedule(overdueSpec, archiveSpec string) error {
	if overdueSpec != "" {
		if _, err := r.cron.AddFunc(overdueSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			if _, err := r.OverdueSweep(ctx); err != nil {
				r.logger.WithError(err).Error("Overdue sweep failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule overdue sweep: %w", err)
		}
	}
	if archiveSpec != "" && r.archive != nil {
		if _, err := r.cron.AddFunc(archiveSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			if _, err := r.ArchiveDailyCollections(ctx, r.book.Today()); err != nil {
				r.logger.WithError(err).Error("Daily archive failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule daily archive: %w", err)
		}
	}
	return nil
}

func (r *Runner) Start() {
	r.logger.WithField("jobs", len(r.cron.Entries())).Info("Starting scheduler")
	r.cron.Start()
}

// Stop halts scheduling and returns a context done once running jobs end.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}

// SweepResult counts what the overdue sweep found.
type SweepResult struct {
	Operators int `json:"operators"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	High      int `json:"high"`
}

// operators lists active accounts that own loans.
func (r *Runner) operators(ctx context.Context) ([]*models.User, error) {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.IsActive && u.Role == models.RoleUser {
			out = append(out, u)
		}
	}
	return out, nil
}

// OverdueSweep walks every operator's pending balances and logs how many
// loans are past their tenor. Nothing is written; overdue stays derived.
func (r *Runner) OverdueSweep(ctx context.Context) (SweepResult, error) {
	ops, err := r.operators(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var total SweepResult
	for _, op := range ops {
		pending, err := r.book.PendingBalances(ctx, op.ID)
		if err != nil {
			return total, fmt.Errorf("failed to load pending balances for %s: %w", op.ID, err)
		}

		var overdueCount, high int
		for _, v := range pending {
			if v.Timing.DaysOverdue > 0 {
				overdueCount++
			}
			if v.Timing.PriorityBand == overdue.BandHigh {
				high++
			}
		}
		total.Operators++
		total.Pending += len(pending)
		total.Overdue += overdueCount
		total.High += high

		if overdueCount > 0 {
			r.logger.WithFields(logrus.Fields{
				"owner_id": op.ID,
				"overdue":  overdueCount,
				"high":     high,
			}).Warn("Operator has overdue loans")
		}
	}

	r.logger.WithFields(logrus.Fields{
		"operators": total.Operators,
		"pending":   total.Pending,
		"overdue":   total.Overdue,
		"high":      total.High,
	}).Info("Overdue sweep finished")
	return total, nil
}

// ArchiveDailyCollections uploads each operator's daily-collection CSV for
// date. Operators with no collections that day are skipped. It returns the
// number of files written.
func (r *Runner) ArchiveDailyCollections(ctx context.Context, date time.Time) (int, error) {
	if r.archive == nil {
		return 0, fmt.Errorf("no archive storage configured")
	}
	ops, err := r.operators(ctx)
	if err != nil {
		return 0, err
	}

	day := models.DateOnly(date).Format(models.DateLayout)
	written := 0
	for _, op := range ops {
		daily, err := r.reports.Daily(ctx, op.ID, date)
		if err != nil {
			return written, err
		}
		if daily.Count == 0 {
			continue
		}

		var buf bytes.Buffer
		if err := r.reports.Render(&buf, report.FormatCSV, daily.Table()); err != nil {
			return written, err
		}
		name := path.Join("reports", "daily", day, op.ID.String()+".csv")
		if _, err := r.archive.Put(ctx, name, report.FormatCSV.ContentType(), &buf); err != nil {
			return written, fmt.Errorf("failed to archive %s: %w", name, err)
		}
		written++
	}

	r.logger.WithFields(logrus.Fields{"date": day, "files": written}).Info("Daily collections archived")
	return written, nil
}
