// Package akavelink provides the core types for a JSON gateway over a
// decentralized-storage command-line tool.
//
// The wrapped binary performs the actual bucket and file operations and
// reports results as human-readable text on stdout/stderr plus an exit
// code. This package turns that contract into a typed one: the Parser
// converts recognized output shapes into structured records, and the
// Classifier maps failure signatures (embedded hex error codes, known
// literal substrings, system errors) onto a fixed error taxonomy with
// HTTP status codes.
//
// # Key Components
//
//   - Parser: converts one blob of subprocess text into a structured
//     entity for a given ParserKind
//   - Classifier: stateless, total mapping from raw failure signals to
//     classified Errors
//   - Registry: read-only table mapping symbolic and hex error codes to
//     message and HTTP status
//
// The runner package drives subprocess execution, the http package
// exposes the REST surface, and the txlookup package provides the
// best-effort transaction-hash enrichment.
package akavelink
