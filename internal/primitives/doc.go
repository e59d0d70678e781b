// Package primitives provides the foundational, zero-dependency data structures
// for the statechart engine.
//
// This package uses ONLY the Go standard library (other `internal/*`
// packages do import third-party modules, e.g. uuid, zap, expr, gopher-lua).
// Keeping this package dependency-free aims at:
// - Minimal binary size
// - Zero vendor bloat
// - Deterministic builds
// - Sub-microsecond performance
//
// Core invariants:
// - Immutability where possible (Event)
// - Thread-safe context (sync.Map)
// - Zero-allocation hot paths
//
// See ../../docs/ARCHITECTURE.md for complete design rationale.
package primitives
