// Package workers provides worker pool sizing helpers that respect
// container CPU limits via GOMAXPROCS.
//
// runtime.NumCPU() returns the host CPU count even under cgroup limits,
// which oversizes pools in containers. GOMAXPROCS (Go 1.19+) tracks the
// container limit, so sizing is derived from it instead.
//
// All functions honor the SEARCH_WORKERS environment variable as a manual
// override, capped by the per-call limit.
package workers
