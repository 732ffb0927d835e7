// Package handlers contains the HTTP handlers for the search API:
// starting, polling, cancelling and resetting reference searches,
// synchronous image-similarity searches, and the health and version
// endpoints.
package handlers
