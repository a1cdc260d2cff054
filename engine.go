package geotape

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gogpu/geotape/internal/cache"
)

// EngineOption configures an Engine during creation.
type EngineOption func(*engineOptions)

type engineOptions struct {
	resolver      *Resolver
	cacheCapacity int
	noCache       bool
}

// WithResolver sets the resolver used by Engine.Compose.
// A nil resolver selects the canonical order.
func WithResolver(r *Resolver) EngineOption {
	return func(o *engineOptions) {
		if r == nil {
			r = defaultResolver
		}
		o.resolver = r
	}
}

// WithCacheCapacity sets the per-shard capacity of the result cache.
func WithCacheCapacity(n int) EngineOption {
	return func(o *engineOptions) {
		o.cacheCapacity = n
	}
}

// WithoutCache disables result caching.
func WithoutCache() EngineOption {
	return func(o *engineOptions) {
		o.noCache = true
	}
}

type resultKey struct {
	tape          string
	width, height int
}

func hashResultKey(k resultKey) uint64 {
	return cache.StringHasher(k.tape + "@" + strconv.Itoa(k.width) + "x" + strconv.Itoa(k.height))
}

// Engine composes transforms and memoizes results by (tape, original size).
// Tapes carrying unseeded random operations are never cached, since each
// resolution draws a new value anyway.
//
// Engine is safe for concurrent use.
type Engine struct {
	resolver *Resolver
	results  *cache.ShardedCache[resultKey, Result]
}

// NewEngine creates an engine.
//
// Example:
//
//	eng := geotape.NewEngine(geotape.WithCacheCapacity(64))
//	res, err := eng.Compose(cfg, img.Bounds().Dx(), img.Bounds().Dy())
func NewEngine(opts ...EngineOption) *Engine {
	o := engineOptions{resolver: defaultResolver}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{resolver: o.resolver}
	if !o.noCache {
		e.results = cache.NewSharded[resultKey, Result](o.cacheCapacity, hashResultKey)
	}
	return e
}

// Compose resolves cfg and builds the result, consulting the cache.
func (e *Engine) Compose(cfg Config, width, height int) (Result, error) {
	tape, err := e.resolver.Resolve(cfg, width, height)
	if err != nil {
		return Result{}, err
	}
	return e.Build(tape, width, height)
}

// Build is the cached form of the package-level Build.
func (e *Engine) Build(tape Tape, width, height int) (Result, error) {
	if e.results == nil {
		return Build(tape, width, height)
	}
	for _, op := range tape {
		if op == nil {
			return Result{}, &InvalidOperationError{}
		}
	}
	if !tape.Reproducible() {
		if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
			log.Debug("geotape: tape has unseeded random operations, not caching",
				slog.String("tape", tape.Key()))
		}
		return Build(tape, width, height)
	}
	key := resultKey{tape: tape.Key(), width: width, height: height}
	return e.results.GetOrCreate(key, func() (Result, error) {
		Logger().Debug("geotape: cache miss",
			slog.String("tape", key.tape),
			slog.Int("width", width),
			slog.Int("height", height))
		return Build(tape, width, height)
	})
}

// Reset drops every cached result. Statistics are kept.
func (e *Engine) Reset() {
	if e.results != nil {
		e.results.Clear()
	}
}

// CacheStats holds result cache statistics.
type CacheStats = cache.Stats

// CacheStats reports the result cache statistics. Zero when caching is
// disabled.
func (e *Engine) CacheStats() CacheStats {
	if e.results == nil {
		return CacheStats{}
	}
	return e.results.Stats()
}
