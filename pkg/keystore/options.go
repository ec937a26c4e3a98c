package keystore

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKeyCacheSize sets how many derived keys are kept in memory.
// Zero disables the cache.
func WithKeyCacheSize(n int) Option {
	return func(s *Store) {
		s.cacheSize = n
	}
}

// WithSessionElementKey overrides the storage key of the session element.
func WithSessionElementKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.elementKey = key
		}
	}
}
