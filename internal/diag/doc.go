// Package diag defines the diagnostic model shared by all analysis phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by the parser, the binder, and the typing-only
//     import analysis.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the driver or CLI can
//     materialise and optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt,
// whereas orchestration and application of fixes lives in internal/fix and
// the driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Parent span – position of the enclosing statement when the primary
//     span is nested inside one (optional).
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// # Fix suggestions
//
// Fix represents a possible automated correction. Each fix carries a title,
// kind, applicability, optional preference mark, concrete text edits (span +
// new/old text), an isolation span that keeps it from being combined with
// unrelated fixes in the same region, and an optional lazy thunk. Fixes are
// intentionally data-only; formatters and the fix engine call
// Resolve/MaterializeFixes to expand them deterministically.
//
// Several diagnostics may share one *Fix: all typing-only imports flagged on
// the same import statement point at a single shared fix, so applying it
// once resolves all of them.
package diag
