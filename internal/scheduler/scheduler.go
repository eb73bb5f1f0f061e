package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/telegram-digest-bot/internal/config"
	"github.com/telegram-digest-bot/internal/models"
)

// Job runs the daily digest delivery. The returned error triggers a short
// backoff instead of advancing to the next day.
type Job func(ctx context.Context, date string) error

// Scheduler fires the digest job once per local day at the configured time.
// It sleeps in one stretch until the computed fire instant rather than
// polling, and a per-day guard keeps clock adjustments from firing twice.
type Scheduler struct {
	cfg    *models.BotConfig
	job    Job
	logger zerolog.Logger
	loc    *time.Location

	now        func() time.Time
	retryDelay time.Duration

	cancel    context.CancelFunc
	done      chan struct{}
	lastFired string
}

func New(cfg *models.BotConfig, job Job, logger zerolog.Logger) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).
			Msg("Failed to load timezone, using local time")
		loc = time.Local
	}

	return &Scheduler{
		cfg:        cfg,
		job:        job,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		loc:        loc,
		now:        time.Now,
		retryDelay: 60 * time.Second,
	}
}

// Start launches the scheduler loop. It returns immediately; Stop shuts the
// loop down and waits for it to exit.
func (s *Scheduler) Start() {
	if !s.cfg.AutoDigestEnabled {
		s.logger.Info().Msg("Auto digest disabled, scheduler idle")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info().Str("fire_time", s.cfg.DigestTime).Str("timezone", s.loc.String()).
		Msg("Scheduler started")
	go s.loop(ctx)
}

// Stop signals the loop to exit and blocks until it has.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.nextRun(s.now())
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Info().Time("next_run", next).Dur("wait", wait).Msg("Sleeping until next digest")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.runPending(ctx); err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
		}
	}
}

// nextRun computes the next fire instant strictly after now. The configured
// time is re-read every cycle, so changing it takes effect without restart.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	hour, minute, err := config.ParseFireTime(s.cfg.DigestTime)
	if err != nil {
		s.logger.Error().Err(err).Str("fire_time", s.cfg.DigestTime).
			Msg("Invalid digest time, falling back to 23:00")
		hour, minute = 23, 0
	}

	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, s.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runPending fires the job unless it already fired for today's date.
func (s *Scheduler) runPending(ctx context.Context) error {
	date := s.now().In(s.loc).Format("2006-01-02")
	if date == s.lastFired {
		s.logger.Debug().Str("date", date).Msg("Digest already delivered today, skipping")
		return nil
	}

	s.logger.Info().Str("date", date).Msg("Running daily digest")
	if err := s.job(ctx, date); err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("Daily digest failed")
		return err
	}

	s.lastFired = date
	return nil
}
