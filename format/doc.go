// Package format shapes raw ClickUp entities for the tool-call
// boundary: field projection by detail level, reference collapsing,
// empty-field elision, cross-item array normalization, and the
// detailed-level downgrade valve for large result sets. All
// transformations are pure functions over decoded JSON.
package format
