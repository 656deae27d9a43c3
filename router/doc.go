// Package router consolidates the upstream entity operations behind a
// small set of action-dispatched tools. It validates parameters before
// any upstream call, resolves loose entity references through the
// resolver, shapes responses through the formatter, and keeps the
// domain caches coherent across mutations.
package router
