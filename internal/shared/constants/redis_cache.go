package constants

import (
	"fmt"
	"time"
)

// Redis key and TTL conventions for hutsync.
// Pattern: hutsync:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	// HRS session survives one hour before a fresh handshake is forced
	TTL_HRS_SESSION = 1 * time.Hour

	// Mirror window reads; invalidated on every reconcile/import anyway
	TTL_QUOTA_WINDOW = 5 * time.Minute
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "hutsync"
)

// ================== HRS SESSION ==================

// HRSSessionKey returns the cache key holding the serialized login session
// for one hut account.
func HRSSessionKey(hutID int) string {
	return fmt.Sprintf("%s:hrs:session:%d", CACHE_PREFIX, hutID)
}

// ================== QUOTA MIRROR ==================

// QuotaWindowKey returns the cache key for a mirror window read,
// dates in ISO format.
func QuotaWindowKey(hutID int, from, to string) string {
	return fmt.Sprintf("%s:quotas:window:%d:%s:%s", CACHE_PREFIX, hutID, from, to)
}

// QuotaWindowPattern matches every cached window for a hut, used for
// invalidation after a reconcile or import touches the mirror.
func QuotaWindowPattern(hutID int) string {
	return fmt.Sprintf("%s:quotas:window:%d:*", CACHE_PREFIX, hutID)
}
