// Package loom provides the shared vocabulary for the loom text-transformation
// service: the closed set of chain actions with their prompt templates, the
// generation provider abstraction, and categorized provider errors.
//
// The step-chain execution engine lives in the workflow package, persistence
// in store, provider adapters under provider, and the HTTP surface in server.
package loom
