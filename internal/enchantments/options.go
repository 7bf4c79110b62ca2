package enchantments

import "time"

// Options tunes a Service. Unset fields take their DefaultOptions value, except
// MinInterval and MaxRetries where zero is meaningful.
type Options struct {
	// CacheTTL is how long a resolution stays fresh, and the age limit of records loaded
	// at start.
	CacheTTL time.Duration
	// MaxConcurrent bounds the number of fetches running at once.
	MaxConcurrent int
	// MinInterval is the minimum time between two dispatches across all workers.
	// Zero disables the rate gate.
	MinInterval time.Duration
	// MaxRetries is the number of retries after the first attempt. Zero disables retries.
	MaxRetries int
	RetryBase  time.Duration
	// FetchTimeout bounds one outbound fetch.
	FetchTimeout time.Duration
	// LoadTimeout bounds the startup read of the durable store.
	LoadTimeout time.Duration
	// PersistBuffer is the number of durable writes that may wait before new ones are dropped.
	PersistBuffer  int
	PersistTimeout time.Duration
}

// DefaultOptions is the full profile
func DefaultOptions() Options {
	return Options{
		CacheTTL:       7 * 24 * time.Hour,
		MaxConcurrent:  3,
		MinInterval:    500 * time.Millisecond,
		MaxRetries:     3,
		RetryBase:      time.Second,
		FetchTimeout:   10 * time.Second,
		LoadTimeout:    5 * time.Second,
		PersistBuffer:  256,
		PersistTimeout: 5 * time.Second,
	}
}

// SimpleOptions is the reduced profile: any failure falls back immediately. Pair it with
// storage.NoopStore for a memory-only resolver.
func SimpleOptions() Options {
	opts := DefaultOptions()
	opts.MaxRetries = 0
	return opts
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CacheTTL <= 0 {
		o.CacheTTL = d.CacheTTL
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = d.MaxConcurrent
	}
	if o.MinInterval < 0 {
		o.MinInterval = 0
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = d.RetryBase
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = d.LoadTimeout
	}
	if o.PersistBuffer <= 0 {
		o.PersistBuffer = d.PersistBuffer
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = d.PersistTimeout
	}
	return o
}
