// Package tools implements the capability functions the reasoning backend
// may invoke through the tool-calling loop: artifact I/O rooted in a
// per-session workspace directory, and command execution under a hard
// wall-clock timeout.
//
// Handlers return failures as result text, not errors: the loop feeds the
// text back to the backend so the next reasoning step can react to it.
package tools
