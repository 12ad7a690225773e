// Package preflight checks the local filesystem paths a sync run writes to.
//
// The "config validate" command reports every result, and "sync" refuses to
// start when one fails so a run is not cut short after it has begun writing
// tags. Service reachability is probed separately by the coordinator.
package preflight
