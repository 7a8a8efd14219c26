// Package domain defines the core business types for the gsuite CLI
// and gateway.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TokenRecord: The persisted OAuth2 credential bundle
//   - Scope sets: Named groups of Google OAuth permission scopes
//   - The error taxonomy: authentication, API, validation,
//     configuration, and storage errors
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
