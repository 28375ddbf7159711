// Package domain defines the core types for the netwatch device graph.
//
// This package holds the entities and value objects shared by the registry,
// the connection graph, the anomaly flagger and the persistence log.
//
// # Core Types
//
// Device is a node in the network graph, identified by a unique address and
// referenced internally by a stable DeviceID.
//
// Edge is an undirected connection between two distinct device addresses.
//
// Outcome reports the result of a connection request. Duplicate edges and
// self loops are outcomes, not errors.
//
// DeviceView and NetworkMap are read models used for listing, reporting and
// export.
//
// # Flags
//
// A device is flagged the first time its degree strictly exceeds the
// configured threshold. The flag never clears. Suspicious is the live
// predicate (degree above threshold right now) and is reported separately.
//
// # Design Principles
//
// - No storage or transport dependencies
// - Sentinel errors compared with errors.Is
// - String-typed enumerations for readable logs and exports
package domain
