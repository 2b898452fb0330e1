// Package cachevane provides a stampede-resistant read-through caching
// coordination layer over an abstract, byte-oriented distributed cache
// backend.
//
// # Overview
//
// cachevane does not store values itself — it coordinates access to a
// Backend (Get/Set/Remove over bytes) so that concurrent callers asking
// for the same missing or expired key trigger exactly one recomputation,
// not one per caller. On top of that single-flight guarantee it offers:
//
//   - Stale-while-revalidate (SWR): serve a stale-but-not-yet-hard-expired
//     value immediately while a background refresh brings it current.
//   - Early refresh: proactively recompute shortly before hard expiry so
//     callers rarely observe a cold miss.
//   - Expiration jitter: spread synchronously created TTLs across a band
//     so mass-expiration doesn't become a mass-recompute.
//   - Bounded-wait fallback: callers that can't wait for a peer's
//     in-flight compute get a stale value (if one exists) or an
//     uncoordinated, unstored compute rather than blocking indefinitely.
//   - A self-evicting keyed lock pool: memory used for coordination is
//     bounded by recently active keys, not by total key cardinality ever seen.
//
// # Quick start
//
//	engine, err := cachevane.NewEngine(myBackend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	user, err := cachevane.GetOrCreate(ctx, engine, "user:123",
//	    func(ctx context.Context) (User, error) {
//	        return fetchUserFromDB(ctx, 123)
//	    }, nil, nil)
//
// Concurrent calls for the same key while no valid entry exists result
// in exactly one invocation of the compute function; every caller
// receives the same computed value.
//
// # Policy and stale-while-revalidate
//
// Passing a non-nil *Policy enables the SWR envelope: the engine wraps
// stored values with a soft-expiry timestamp so it can later tell
// "fresh" from "stale-but-serveable" from "hard expired". Passing a nil
// Policy writes the value plain, with no envelope and no SWR behavior,
// for interoperability with non-cachevane writers or callers who don't
// want the envelope overhead:
//
//	policy := &cachevane.Policy{
//	    SoftTTL: durationPtr(30 * time.Second),
//	    HardTTL: durationPtr(5 * time.Minute),
//	}
//	user, err := cachevane.GetOrCreate(ctx, engine, "user:123", loadUser, policy, nil)
//
// # Bulk fan-out
//
//	users, err := cachevane.GetOrCreateMany(ctx, engine, ids,
//	    func(ctx context.Context, key string) (User, error) {
//	        return fetchUserFromDB(ctx, key)
//	    }, 16, nil, nil)
//
// # Observability
//
// The engine exposes built-in atomic counters via Stats(), and accepts
// a pluggable MetricsCollector (zero overhead when left as the default
// NoOpMetricsCollector). Companion modules adapt MetricsCollector to
// OpenTelemetry (cachevane/otel) and Prometheus (cachevane/prom),
// following the same nested-module-with-replace-directive pattern its
// ambient tooling was modeled on.
//
// # Configuration
//
// GlobalConfig is process-wide and replaced atomically via
// Engine.Configure, which also rebuilds the lock pool. HotConfig
// (hotreload.go) optionally watches a configuration file with
// github.com/agilira/argus and calls Configure on change.
package cachevane
