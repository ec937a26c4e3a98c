// Package ratelimiter implements a token bucket limiter.
//
// Each key owns a bucket of Capacity tokens. Every RefillInterval, RefillRate
// tokens are added back up to Capacity. Allow consumes one token; a denied
// call consumes nothing, so hammering a locked key does not extend the lock.
//
// The auth flow uses one bucket per identity to throttle TOTP code attempts.
package ratelimiter
