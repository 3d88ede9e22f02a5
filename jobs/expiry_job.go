package jobs

import (
	"context"
	"log"
	"time"

	"github.com/anjiri1684/tutor_booking/services"
)

// ExpireStaleHolds returns the cron func that sweeps holds past their
// expiry. A crashed orchestrator leaves only a hold_expires_at behind; this
// sweep is what guarantees the slot comes back.
func ExpireStaleHolds(reservations *services.ReservationService) func() {
	return func() {
		expired, err := reservations.ExpireStale(context.Background(), time.Now())
		if err != nil {
			log.Printf("Error expiring stale holds: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("Expired %d stale reservation hold(s).", expired)
		}
	}
}
