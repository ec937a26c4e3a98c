// Package kv defines the narrow key-value storage contract consumed by the
// authentication core and ships several implementations of it.
//
// Two flavours of storage are used by the core:
//
//   - durable storage survives application restarts on the same device and holds
//     encrypted records, the device registry and persisted random elements;
//   - volatile storage lives for one browsing (or process) session and holds the
//     session record only.
//
// Both flavours share the same Store interface. The package provides:
//
//   - MemoryStore – in-process, volatile. Suitable for sessions and tests.
//   - BoltStore   – local embedded database backed by go.etcd.io/bbolt. Durable.
//   - RedisStore  – remote, backed by github.com/redis/go-redis/v9. Entries may
//     carry a TTL which makes it a good fit for volatile session storage shared
//     between processes.
//   - MongoStore  – remote document store backed by go.mongodb.org/mongo-driver/v2.
//     Durable.
//
// # Usage
//
//	store, err := kv.OpenBolt(kv.BoltConfig{Path: "/var/lib/notes/auth.db"})
//	if err != nil {
//	    // handle error
//	}
//	defer store.Close()
//
//	if err := store.Set(ctx, "device.id", "b6c1..."); err != nil {
//	    // handle error
//	}
//	id, err := store.Get(ctx, "device.id")
//	if errors.Is(err, kv.ErrNotFound) {
//	    // key is absent
//	}
//
// # Error Handling
//
// A missing key is reported as ErrNotFound. Any backend failure is wrapped with
// ErrUnavailable so callers can degrade to "authentication unavailable" without
// inspecting driver specific errors.
package kv
