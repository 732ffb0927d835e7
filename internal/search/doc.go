// Package search implements the reference search engine: immutable
// search criteria with file-type classification, search-root
// optimization, a concurrent traversal engine over network-mounted
// storage, result aggregation by reference, and the single-session
// state machine.
//
// Control flow: criteria are validated and frozen by NewCriteria, the
// Service starts one Engine per session, workers publish FileMatch and
// ProgressEvent streams over channels, and the Aggregator (the single
// consumer) groups matches per reference. Completed result sets are
// memoized through a ResultCache keyed by the criteria hash.
//
// Cancellation is cooperative: the engine checks its context before
// entering each directory and before emitting each match, so a cancelled
// session terminates promptly with valid partial results.
package search
