// Package observe provides structured logging, tracing, and metrics for
// the protocol adapter. All output goes to stderr or an exporter, never
// to stdout, which carries the protocol stream.
package observe
