// Package core defines the shared language of the askdata client.
//
// This package contains:
//   - Domain entities (Dataset, Record, QueryResult)
//   - The closed Payload sum type that QueryResult decodes into
//   - Wire request types for the analytics service (QueryRequest)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
