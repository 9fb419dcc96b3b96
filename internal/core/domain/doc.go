// Package domain defines the core business entities for Citeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChunkRecord: A retrievable passage of an ingested document
//   - SearchHit: A chunk paired with a similarity score
//   - Citation: A traceability record linking an answer to a chunk
//   - Answer: The outcome of a question, grounded or refused
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
