// Package session holds the shared state threaded through every step of the
// orchestrator pipeline.
//
// State is never mutated by a stage directly. Stages and the supervisor
// return Update values describing what to append or overwrite, and the
// controller applies them. This keeps the message history append-only and
// prevents cross-stage coupling through in-place mutation.
package session
