// Package agent defines the pipeline stages and the generic tool-calling
// loop they share.
//
// A Stage is data: a model role, a tool subset, an instruction builder, and
// a finalizer that turns the loop's result into a state update. The Loop is
// the behavior: it alternates backend completions with synchronous
// capability invocations until the backend stops requesting tools or the
// round cap is hit. Stages receive a read-only view of history and return
// the messages to append; they never mutate shared state in place.
package agent
