// Package repository defines the roster/persona store interface and errors.
package repository

// Option applies a configuration option to the RosterStore.
type Option func(*RosterStore)

// WithShardCount sets the number of actor shards.
func WithShardCount(count int) Option {
	return func(s *RosterStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithDefaultWeight sets the weight applied when a selection omits one.
func WithDefaultWeight(weight float64) Option {
	return func(s *RosterStore) {
		if weight > 0 {
			s.defaultWeight = weight
		}
	}
}
