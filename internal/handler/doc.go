// Package handler implements the HTTP view of the network.
//
// The API is read-mostly: devices, anomalies and exports are served from
// NetworkService snapshots, and POST /api/connections is the single write
// path, going through the same Connect call as the CLI.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint streams service events (new connections, flagged
// devices, store failures) to browsers via the hub package.
package handler
