// Package app assembles the dashboard server: configuration, logging,
// the order dataset service, HTTP routes and the WebSocket hub. It owns
// startup ordering and graceful shutdown.
package app
