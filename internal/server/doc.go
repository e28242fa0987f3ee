// Package server wires the HTTP surface: live event ingest, session
// lifecycle, song queue management, the dashboard WebSocket endpoint and the
// observability endpoints. Handlers return structured errors which the
// errors middleware maps to status codes.
package server
