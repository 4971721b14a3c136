package scheduler

import (
	"context"
	"time"

	"fieldvisits_backend/platform/logger"
)

const defaultSweepInterval = 15 * time.Minute

// MissedVisitBulkMarker closes every pending visit that ended before cutoff.
type MissedVisitBulkMarker interface {
	MarkMissedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MissedVisitSweep periodically closes pending visits whose per-visit task
// was never enqueued, for example because Redis was down at booking time.
type MissedVisitSweep struct {
	marker   MissedVisitBulkMarker
	log      *logger.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

func NewMissedVisitSweep(marker MissedVisitBulkMarker, log *logger.Logger, interval, grace time.Duration) *MissedVisitSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if grace < 0 {
		grace = 0
	}

	return &MissedVisitSweep{
		marker:   marker,
		log:      log,
		interval: interval,
		grace:    grace,
		now:      time.Now,
	}
}

func (s *MissedVisitSweep) Run(ctx context.Context) {
	if s == nil || s.marker == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *MissedVisitSweep) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.grace)

	marked, err := s.marker.MarkMissedBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("missed visit sweep failed", "error", err)
		return
	}

	if marked > 0 {
		s.log.Info("missed visit sweep closed pending visits", "marked", marked, "cutoff", cutoff)
	}
}
