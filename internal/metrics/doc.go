// Package metrics provides Prometheus instrumentation for the reference
// search engine. All metrics are prefixed with "refsearch_" and registered
// with the default registry via promauto; expose them by mounting
// promhttp.Handler() on the /metrics endpoint.
//
// Categories:
//   - HTTP: request counts, durations, in-flight gauge
//   - Search: session counts by mode/outcome, durations, traversal counters
//   - Cache: result cache hits/misses and purge counts
//   - Image: perceptual hash timings and decode failures
//   - Filesystem: NFS retry behavior per operation and search root
package metrics
