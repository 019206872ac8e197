package service

import (
	"context"
	"log"
	"time"

	"github.com/openshelf/circulation/models"
)

// SweepSource provides the batches the sweeper works through each cycle.
type SweepSource interface {
	ExpiredPendingHolds(ctx context.Context, now time.Time) ([]models.PreBooking, error)
	OverdueCandidates(ctx context.Context, asOf time.Time) ([]models.IssuedBook, error)
}

// Sweeper is the periodic background actor: it expires stale Pending holds
// and persists Overdue status plus recomputed fines on late loans. Every
// per-record operation is idempotent, so a failed record is just logged and
// retried on the next cycle; one bad record never blocks the batch.
//
// Expiring a hold releases no inventory because a Pending hold never took a
// copy off the shelf in the first place.
type Sweeper struct {
	src      SweepSource
	res      *Reservation
	circ     *Circulation
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(src SweepSource, res *Reservation, circ *Circulation, interval time.Duration) *Sweeper {
	return &Sweeper{
		src:      src,
		res:      res,
		circ:     circ,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. Lateness is
// harmless: a missed tick only leaves holds Pending slightly past their
// deadline.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("sweeper: running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single cycle and reports how many holds were expired and
// how many loans were marked overdue.
func (s *Sweeper) SweepOnce(ctx context.Context) (expired, overdue int) {
	now := s.now().UTC()

	holds, err := s.src.ExpiredPendingHolds(ctx, now)
	if err != nil {
		log.Printf("sweeper: listing expired holds: %v", err)
	}
	for i := range holds {
		if err := s.res.Expire(ctx, holds[i].ID); err != nil {
			log.Printf("sweeper: expire hold %s: %v", holds[i].ID.Hex(), err)
			continue
		}
		expired++
	}

	loans, err := s.src.OverdueCandidates(ctx, now)
	if err != nil {
		log.Printf("sweeper: listing overdue loans: %v", err)
	}
	for i := range loans {
		if err := s.circ.MarkOverdueAsOf(ctx, &loans[i], now); err != nil {
			log.Printf("sweeper: mark overdue loan %s: %v", loans[i].ID.Hex(), err)
			continue
		}
		overdue++
	}

	if expired > 0 || overdue > 0 {
		log.Printf("sweeper: expired %d holds, marked %d loans overdue", expired, overdue)
	}
	return expired, overdue
}
