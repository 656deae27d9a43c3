// Package resolve translates loose entity references (ID, custom
// short-code, exact or fuzzy name) into canonical ClickUp entity IDs
// with deterministic tie-breaking and explicit ambiguity errors.
package resolve
