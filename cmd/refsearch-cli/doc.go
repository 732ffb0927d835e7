// Command refsearch-cli runs a one-shot reference search from the
// terminal, without the HTTP server. It is useful for scripting and for
// checking a NAS share before deploying the service.
//
// Usage:
//
//	refsearch-cli [options] <references...>
//
// References are parsed with the same tolerant grammar as the API, so a
// whole pasted line like "GLW 3201 - BLZ 6472" works as a single argument.
// Roots come from -roots or the SEARCH_ROOTS environment variable.
// Progress is written to stderr; results to stdout, one reference per
// group. Interrupting with Ctrl-C prints the partial results collected so
// far.
package main
