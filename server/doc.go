// Package server exposes the router's tools over the Model Context
// Protocol via stdio, plus an optional HTTP sidecar for health and
// metrics. The exposed tool set is fixed at startup from configuration.
package server
