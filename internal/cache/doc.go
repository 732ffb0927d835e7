// Package cache persists completed search result sets in SQLite, keyed
// by the criteria hash. Expiry is TTL-based and configurable; the cache
// is deliberately unaware of filesystem changes (documented limitation).
package cache
