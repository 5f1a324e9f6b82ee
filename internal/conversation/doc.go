// Package conversation defines the message types threaded through the
// orchestrator pipeline.
//
// Every stage and the supervisor communicate through an append-only sequence
// of Messages. Tool invocations requested by the reasoning backend are
// carried as ToolCallRequests on assistant messages, and their outcomes come
// back as tool-role messages correlated by call ID.
package conversation
