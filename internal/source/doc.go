// Package source contains one adapter per external event-listing site, all
// behind the same FetchEvents contract. Two implementation variants exist:
// direct HTTP fetch with a structural parse for server-rendered sites, and a
// browser-driven variant for sites that only populate content client-side.
// The orchestrator cannot tell them apart. A generic configuration-driven
// adapter covers sites without dedicated logic.
//
// Adapters contain failures: a bad item is logged and skipped, a bad page
// contributes nothing and pagination continues, and only setup-level problems
// (browser launch, unreachable site) surface as adapter errors, which the
// orchestrator converts to a zero contribution for that source.
package source
