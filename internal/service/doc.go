// Package service implements the core API of netwatch.
//
// NetworkService ties together the device registry, the connection graph, the
// anomaly flagger and the connection log. It is the only entry point the CLI,
// the simulation driver and the HTTP view use to touch the graph.
//
// # Connection flow
//
// Connect validates both addresses, runs the graph connect (which registers
// endpoints and notifies the flagger) and, only when a new edge was created,
// appends one record to the log. LoadFromStore replays the log through the same
// graph path without appending, so loading twice never duplicates an edge or a
// record.
//
// # Event System
//
// The service publishes events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE): connection outcomes, newly flagged
// devices, failed appends and completed replays.
package service
