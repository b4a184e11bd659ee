// Package component defines the core interfaces for lifecycle-managed
// pieces of the client.
//
// Components represent services that require startup, shutdown, and
// health monitoring.
//
// # Interfaces
//
//   - Component: Core lifecycle interface (Start/Stop/Health)
//   - Describable: Startup summary descriptions
package component
