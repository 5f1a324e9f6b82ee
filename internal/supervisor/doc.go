// Package supervisor decides which stage runs next.
//
// Each decision asks the reasoning backend for a route given the milestone
// checklist, then guards the answer: a strict JSON decoder first, a
// substring-scan fallback second, and a terminal default when neither
// yields a known route. The supervisor also enforces the two invariants the
// backend cannot be trusted with: it refuses to finish while milestones are
// unmet and iterations remain, and it refuses to continue once the
// iteration cap is reached.
package supervisor
