package service

import (
	"context"
	"time"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/format"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/notify"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/pipeline"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/config"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/errors"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
)

// Outcome is the completion state of a run
type Outcome string

const (
	// OutcomeSuccess means alerts were computed and both sinks delivered
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means alerts were computed but at least one sink failed
	OutcomePartial Outcome = "partial"
	// OutcomeNoAlerts means the run completed with nothing to report
	OutcomeNoAlerts Outcome = "no_alerts"
	// OutcomeFailed means the data source failed; no alerts could be computed
	OutcomeFailed Outcome = "failed"
)

// InventorySource fetches raw inventory rows from the data store
type InventorySource interface {
	FetchExpiring(ctx context.Context, refDate time.Time, lookaheadDays int) ([]pipeline.InventoryRecord, error)
}

// ChatSink delivers the digest to a chat channel
type ChatSink interface {
	Send(ctx context.Context, content string) error
}

// EmailSink delivers the digest body plus the spreadsheet attachment
type EmailSink interface {
	Send(body string, attachment []byte, filename, subject string) error
}

// Runner orchestrates one run of the expiry report:
// fetch, sanitize, evaluate, format, notify. Fully sequential.
type Runner struct {
	source InventorySource
	chat   ChatSink
	email  EmailSink
	cfg    config.JobConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewRunner creates a new report runner
func NewRunner(source InventorySource, chat ChatSink, email EmailSink, cfg config.JobConfig, log *logger.Logger) *Runner {
	return &Runner{
		source: source,
		chat:   chat,
		email:  email,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes one complete report cycle. A source failure is fatal to the
// run; a sink failure degrades the outcome to partial but never blocks the
// other sink.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	started := r.now()
	refDate := pipeline.DateOnly(started)
	r.logger.Info().Str("reference_date", refDate.Format(pipeline.DateLayout)).Msg("expiry check started")

	records, err := r.source.FetchExpiring(ctx, refDate, r.cfg.LookaheadDays)
	if err != nil {
		return OutcomeFailed, errors.SourceFailure(err, "fetch", "inventory query failed")
	}

	if len(records) == 0 {
		r.logger.Info().Msg("no inventory rows returned")
		return OutcomeNoAlerts, nil
	}
	r.logPreview(records)

	validated, sanReport := pipeline.Sanitize(records, refDate)
	r.logSanitize(sanReport)

	entries, evalReport := pipeline.Evaluate(validated, refDate, r.cfg.MaxOverdueDays)
	if evalReport.CeilingFiltered > 0 {
		r.logger.Warn().
			Int("filtered", evalReport.CeilingFiltered).
			Int("ceiling_days", r.cfg.MaxOverdueDays).
			Msg("dropped records with implausible overdue counts")
	}

	if len(entries) == 0 {
		r.logger.Info().Msg("no expired batches found")
		return OutcomeNoAlerts, nil
	}

	r.logStatistics(entries)

	digest := format.Summarize(entries, started)
	export := format.Tabulate(entries)

	delivered := true

	if err := r.chat.Send(ctx, digest); err != nil {
		r.logger.Error().Err(err).Msg("chat delivery failed")
		delivered = false
	}

	if err := r.sendEmail(entries, export, started); err != nil {
		r.logger.Error().Err(err).Msg("email delivery failed")
		delivered = false
	}

	r.logger.Info().
		Int("alerts", len(entries)).
		Dur("elapsed", time.Since(started)).
		Bool("all_sinks_delivered", delivered).
		Msg("expiry check completed")

	if !delivered {
		return OutcomePartial, nil
	}
	return OutcomeSuccess, nil
}

func (r *Runner) sendEmail(entries []pipeline.AlertEntry, export format.TabularExport, started time.Time) error {
	attachment, err := format.BuildWorkbook(export)
	if err != nil {
		return errors.SinkFailure(err, "email", "failed to build spreadsheet attachment")
	}

	body := format.EmailBody(len(entries), r.cfg.MaxOverdueDays, started)
	return r.email.Send(body, attachment, notify.AttachmentName(started), notify.Subject(started, len(entries)))
}

// logPreview logs the first few fetched rows for operator visibility
func (r *Runner) logPreview(records []pipeline.InventoryRecord) {
	n := len(records)
	if n > 5 {
		n = 5
	}
	for _, rec := range records[:n] {
		raw := ""
		if rec.ExpiryDate != nil {
			raw = *rec.ExpiryDate
		}
		r.logger.Debug().
			Str("item_code", rec.ItemCode).
			Str("batch", rec.BatchNumber).
			Str("warehouse", rec.WarehouseCode).
			Float64("quantity", rec.Quantity).
			Str("expiry_date", raw).
			Msg("sample row")
	}
}

func (r *Runner) logSanitize(report pipeline.SanitizeReport) {
	if report.InvalidDates == 0 && report.AbnormalYears == 0 {
		return
	}
	r.logger.Warn().
		Int("invalid_dates", report.InvalidDates).
		Int("abnormal_years", report.AbnormalYears).
		Int("kept", report.Kept).
		Msg("filtered records with bad expiry dates")

	for _, sample := range report.Samples(3) {
		r.logger.Warn().
			Str("item_code", sample.ItemCode).
			Str("batch", sample.BatchNumber).
			Str("raw_expiry", sample.RawExpiry).
			Str("reason", string(sample.Reason)).
			Msg("excluded record sample")
	}
}

func (r *Runner) logStatistics(entries []pipeline.AlertEntry) {
	maxOverdue, minOverdue, sum := entries[0].OverdueDays, entries[0].OverdueDays, 0
	for _, e := range entries {
		if e.OverdueDays > maxOverdue {
			maxOverdue = e.OverdueDays
		}
		if e.OverdueDays < minOverdue {
			minOverdue = e.OverdueDays
		}
		sum += e.OverdueDays
	}
	r.logger.Info().
		Int("alerts", len(entries)).
		Int("max_overdue_days", maxOverdue).
		Int("min_overdue_days", minOverdue).
		Float64("avg_overdue_days", float64(sum)/float64(len(entries))).
		Msg("expired batches found")
}
