// Package diag defines the diagnostic model shared by the lowering phases.
//
// It provides deterministic data structures capturing findings produced by
// the declaration materializer and the driver, plus light-weight utilities
// (Reporter, Bag) that let producers emit diagnostics without coupling to
// concrete storage or formatting layers.
//
// Diagnostic is the central record: a Severity, a compact numeric Code with a
// stable string form, a short message, the primary source.Span, and optional
// notes pointing at secondary locations ("previous definition is here").
//
// Phases emit through a diag.Reporter. BagReporter aggregates into a Bag,
// which supports sorting and capacity limiting; DedupReporter suppresses
// repeated identical reports. Rendering lives in the CLI layer, not here.
package diag
