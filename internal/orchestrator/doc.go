// Package orchestrator drives a session end to end: it asks the
// supervisor for a route, runs the chosen stage through the agent loop,
// merges the stage's update, and checkpoints after every step. Stages in
// the interrupt set suspend the pipeline before any of their side effects
// run; Resume picks the session back up from its latest checkpoint.
package orchestrator
