// Package cache provides a small generic LRU cache.
//
// The key store uses it to keep recently derived keys in memory, so repeated
// decrypts on one device do not pay for a full PBKDF2 pass each time. The
// eviction callback lets owners wipe sensitive values when they fall out.
package cache
