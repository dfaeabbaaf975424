// Package orchestration repeats single-trial simulators across many trials
// and reduces the raw outcomes into aggregate statistics. It decouples the
// per-trial generators from presentation: callers receive means and ordered
// outcome sequences, observers receive TrialUpdate notifications.
package orchestration
