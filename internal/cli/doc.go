// Package cli implements the command-line interface for markitit-scraper.
//
// The cli package provides the Cobra-based CLI with subcommands for running
// a scrape, listing the stored events, and clearing the store. It wires the
// source adapters, the dedup checker, and the document store together from
// the loaded configuration; the packages themselves stay CLI-agnostic.
package cli
