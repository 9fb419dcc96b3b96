// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: durable chunk + embedding storage with exact search
//   - EmbeddingService: maps text to fixed-dimension vectors
//   - LLMService: generates answers from assembled context
//
// # Optional Interfaces
//
//   - SourceCatalog: ingestion audit trail. When nil, ingestion still
//     works; the sources listing is simply unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
