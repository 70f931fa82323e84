// Package driving defines the interfaces external actors (the CLI and
// its watch mode) use to run document analysis. These are the "driving"
// ports in hexagonal architecture terminology.
//
// Implementations live in internal/core/services.
package driving
