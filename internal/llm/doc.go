// Package llm is the single point of contact with the reasoning backend.
//
// Backend abstracts the provider; the production implementation binds
// langchaingo's OpenAI client. Client layers per-role model selection and
// the bounded-retry policy on top, and is what the supervisor and the
// tool-calling loop actually hold. Transient failures (rate limits,
// connection errors, timeouts, 5xx) are retried with exponential backoff;
// anything else propagates immediately.
package llm
