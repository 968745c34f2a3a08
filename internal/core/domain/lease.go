package domain

import "time"

// ConcurrencyLease is a time-bounded claim on one slot of the cluster-wide
// sync concurrency pool. The holder refreshes LastHeartbeatAt on a fixed
// interval; a lease not refreshed within TTL is presumed abandoned and its
// slot becomes reclaimable by the next contender. Reclamation is advisory:
// a holder must treat a failed heartbeat as loss of ownership.
type ConcurrencyLease struct {
	Slot            int           `json:"slot"`
	OwnerID         string        `json:"owner_id"`
	AcquiredAt      time.Time     `json:"acquired_at"`
	LastHeartbeatAt time.Time     `json:"last_heartbeat_at"`
	TTL             time.Duration `json:"ttl"`
}

// Expired reports whether the lease has gone past TTL without a heartbeat.
func (l *ConcurrencyLease) Expired(now time.Time) bool {
	return now.Sub(l.LastHeartbeatAt) > l.TTL
}
