// Package types holds the shared model base, listing options, typed filter
// predicates and result envelopes used by the repository and service layers.
package types
