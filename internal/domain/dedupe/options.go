package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithCapacityHint preallocates room for n IDs.
func WithCapacityHint(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.hint = n
		}
	}
}
