// Package services contains the core application services implementing the
// driving ports. IngestService turns documents into embedded chunk records,
// AskService answers questions over the accumulated corpus with citations
// and a sufficiency guardrail.
//
// Services depend only on domain types and ports; adapters are injected.
package services
