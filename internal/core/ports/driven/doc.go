// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - TokenStore: persisted OAuth token records (SQLite, Secret
//     Manager, or in-memory)
//   - TokenProvider: live access tokens for API clients, implemented
//     by the credential manager
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
