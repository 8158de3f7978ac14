package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/db"
)

const jobTimeout = 2 * time.Minute

// RegisterAggregateReconciliation registers the job that recomputes venue
// and court booking/revenue totals from paid bookings. The payment handler
// updates the counters transactionally; this job treats them as a derived
// view and heals any drift.
func RegisterAggregateReconciliation(database *db.DB) error {
	if database == nil {
		return fmt.Errorf("aggregate reconciliation requires database")
	}

	jobName := "reconcile_aggregates"
	cronExpr := "*/30 * * * *"
	jobLogger := log.With().
		Str("component", "reconcile_aggregates_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		venueIDs, err := database.Queries.ListVenueIDs(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to list venues for reconciliation")
			return
		}

		for _, venueID := range venueIDs {
			err := database.RunInTx(ctx, func(tx *db.DB) error {
				if err := tx.Queries.RecomputeVenueAggregates(ctx, venueID); err != nil {
					return fmt.Errorf("venue aggregates: %w", err)
				}
				if err := tx.Queries.RecomputeCourtAggregates(ctx, venueID); err != nil {
					return fmt.Errorf("court aggregates: %w", err)
				}
				return nil
			})
			if err != nil {
				jobLogger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to reconcile venue aggregates")
			}
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add aggregate reconciliation job: %w", err)
	}

	jobLogger.Info().Msg("Aggregate reconciliation job registered")
	return nil
}

// RegisterStalePendingExpiry registers the job that cancels unpaid pending
// bookings whose start time has passed, so dead holds stop blocking slots.
func RegisterStalePendingExpiry(database *db.DB) error {
	if database == nil {
		return fmt.Errorf("stale pending expiry requires database")
	}

	jobName := "expire_stale_pending"
	cronExpr := "*/10 * * * *"
	jobLogger := log.With().
		Str("component", "expire_stale_pending_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		now := time.Now()
		expired, err := database.Queries.ExpireStalePending(ctx, now,
			now.Format("2006-01-02"), now.Format("15:04"))
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to expire stale pending bookings")
			return
		}
		if expired > 0 {
			jobLogger.Info().Int64("expired", expired).Msg("Stale pending bookings cancelled")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add stale pending expiry job: %w", err)
	}

	jobLogger.Info().Msg("Stale pending expiry job registered")
	return nil
}
