// Package renderer turns ledger views into markdown reports. Each report is
// a pure function from a view struct to a markdown string; the caller decides
// whether to print it raw or through a terminal renderer.
package renderer
