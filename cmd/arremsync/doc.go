// Package main hosts the arremsync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, wires
// the Emby and Arr gateways into a tagsync.Coordinator, and renders run
// summaries as tables or JSON. Reconciliation logic lives in
// internal/tagsync; commands here only translate flags into calls.
package main
