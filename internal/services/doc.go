// Package services defines shared utilities consumed by the sync engine and
// the external service gateways.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and Arr instance names for
//     logging.
//   - Structured error markers plus the Wrap helper, so callers can tell a
//     rejected write from an unreachable server with errors.Is.
//
// Gateway implementations live in subpackages (arr, emby, httpx).
package services
