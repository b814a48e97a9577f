// Package lookup queries external audiobook catalogs for metadata.
//
// Three providers are supported: the Audible catalog search, the Audnexus
// book endpoint (ASIN keyed) and the Open Library search API. Each client is a
// thin typed wrapper that converts the provider payload into a
// metadata.Record. Service fans a query out across the providers and returns
// labeled results ready for the merge package. Providers that fail or find
// nothing are logged and skipped; only a query with no results at all is an
// error.
package lookup
