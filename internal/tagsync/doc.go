// Package tagsync reconciles Arr tags into the media server.
//
// A Coordinator owns one Syncer per configured Arr instance. All syncers
// share a single ProviderIndex, so the media server library is listed at
// most once per item kind per run. Each Syncer probes its gateways, warms
// the index and its TagResolver, then walks the Arr library in batches.
// For each item the Matcher finds the media server entry by provider ID and
// the Reconciler adds whichever Arr labels the entry is missing. Tags are
// only ever added, never removed.
//
// Per-item failures are recorded in Stats and never stop a run. A failing
// instance is recorded in the Report and the Coordinator moves on to the
// next one. Only a failed connectivity probe before any work starts aborts
// the whole run.
//
// Nothing in this package is safe for concurrent use; runs are sequential.
package tagsync
