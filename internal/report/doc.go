// Package report turns an income statement CSV export into a normalized
// record set: a category hierarchy, per-category monthly amounts, and a fixed
// block of summary totals.
//
// Parsing is a pure function of the input bytes and the caller-supplied
// upload time. Nothing is read from the clock or the filesystem while
// parsing, so the same input always yields the same Report.
//
// # Input shape
//
// The first column holds account names, with hierarchy encoded as leading
// indentation (4 spaces per level) or, failing that, by naming conventions.
// The remaining columns are months ("Jan 2025" … "Dec 2025"); any column whose
// header mentions "total" is ignored. Preamble rows above the header (company
// name, report title) are skipped.
//
// # Hierarchy
//
// A category's parent is the nearest preceding non-total category with a
// strictly smaller depth, computed with a single depth stack. Labels are
// never compared, because account names repeat across sections.
//
// # Classification
//
// Account types come from an ordered keyword table (see account_types.yaml)
// with a positional fallback. The table is versioned and may be replaced at
// start-up without touching the parser.
package report
