package engine

import "log/slog"

// DefaultMaxRounds bounds Evaluate when no WithMaxRounds option is supplied.
const DefaultMaxRounds = 100

// Option customises an Engine.
type Option func(*Engine)

// WithMaxRounds sets the round cap applied by Evaluate. Values below one are
// ignored. When the cap is reached evaluation stops and returns what it has
// computed so far with FormState.Converged set to false.
func WithMaxRounds(rounds int) Option {
	return func(e *Engine) {
		if rounds > 0 {
			e.maxRounds = rounds
		}
	}
}

// WithLogger attaches a structured logger. A nil logger keeps the engine
// silent.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}
