// Package prompt fills a mixin form interactively. A Session asks for one
// field at a time and re-evaluates after every answer, so fields revealed by
// an answer are asked next.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/schema"
)

const skipOption = "(skip)"

// Option configures a Session.
type Option func(*Session)

// WithDriver overrides the prompt driver. The default is the survey driver
// writing to stdout.
func WithDriver(driver Driver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session drives one interactive fill against an engine.
type Session struct {
	engine *engine.Engine
	driver Driver
	logger *slog.Logger
}

// NewSession returns a Session for e.
func NewSession(e *engine.Engine, options ...Option) (*Session, error) {
	if e == nil {
		return nil, errors.New("prompt: engine is required")
	}
	s := &Session{
		engine: e,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Fill asks for every available field that has no value yet and returns the
// final evaluation. When active is empty the user first picks root mixins.
// The values map passed in is not modified.
func (s *Session) Fill(ctx context.Context, active []string, values map[string]any) (schema.FormState, error) {
	filled := make(map[string]any, len(values))
	for k, v := range values {
		filled[k] = v
	}

	if len(active) == 0 {
		picked, err := s.pickRoots(ctx)
		if err != nil {
			return schema.FormState{}, err
		}
		active = picked
	}

	asked := make(map[string]bool, len(filled))
	for name := range filled {
		asked[name] = true
	}

	shown := make(map[string]bool, len(active))
	for _, name := range active {
		shown[name] = true
	}
	for {
		if err := ctx.Err(); err != nil {
			return schema.FormState{}, err
		}

		state := s.engine.Evaluate(active, filled)
		for _, name := range state.ActiveMixins {
			if shown[name] {
				continue
			}
			shown[name] = true
			if err := s.driver.Info(ctx, "+ "+name); err != nil {
				return schema.FormState{}, err
			}
		}
		active = state.ActiveMixins

		field, ok := nextField(state.AvailableFields, asked)
		if !ok {
			return state, nil
		}
		asked[field.Name] = true

		value, set, err := s.ask(ctx, field)
		if err != nil {
			return schema.FormState{}, err
		}
		if set {
			filled[field.Name] = value
		}
		s.logger.Debug("prompt: answered", "field", field.Name, "set", set, "active", len(state.ActiveMixins))
	}
}

func (s *Session) pickRoots(ctx context.Context) ([]string, error) {
	roots := s.engine.RootMixins()
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	if len(roots) == 1 {
		return []string{roots[0]}, nil
	}

	indices, err := s.driver.MultiSelect(ctx, SelectConfig{
		Message: "Select what this item is",
		Options: roots,
	})
	if err != nil {
		return nil, err
	}
	picked := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(roots) {
			picked = append(picked, roots[idx])
		}
	}
	return picked, nil
}

func nextField(fields []schema.Field, asked map[string]bool) (schema.Field, bool) {
	for _, f := range fields {
		if !asked[f.Name] {
			return f, true
		}
	}
	return schema.Field{}, false
}

// ask prompts for one field. set is false when an optional field was left
// blank.
func (s *Session) ask(ctx context.Context, field schema.Field) (value any, set bool, err error) {
	label := field.Name
	if field.Unit != "" {
		label = fmt.Sprintf("%s (%s)", field.Name, field.Unit)
	}

	switch field.Kind {
	case schema.FieldKindEnum:
		options := append([]string{}, field.Options...)
		if !field.Required {
			options = append(options, skipOption)
		}
		idx, err := s.driver.Select(ctx, SelectConfig{Message: label, Options: options})
		if err != nil {
			return nil, false, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return nil, false, nil
		}
		return field.Options[idx], true, nil

	case schema.FieldKindBool:
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label})
		if err != nil {
			return nil, false, err
		}
		return answer, true, nil

	case schema.FieldKindNumber, schema.FieldKindUnit:
		raw, err := s.driver.Input(ctx, InputConfig{
			Message:   label,
			Validator: numberValidator(field.Required),
		})
		if err != nil {
			return nil, false, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, false, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false, fmt.Errorf("prompt: %s: %w", field.Name, err)
		}
		return n, true, nil

	default:
		var validator func(string) error
		if field.Required {
			validator = requiredValidator
		}
		raw, err := s.driver.Input(ctx, InputConfig{Message: label, Validator: validator})
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(raw) == "" {
			return nil, false, nil
		}
		return raw, true, nil
	}
}

func requiredValidator(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("a value is required")
	}
	return nil
}

func numberValidator(required bool) func(string) error {
	return func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			if required {
				return errors.New("a value is required")
			}
			return nil
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return errors.New("enter a number")
		}
		return nil
	}
}
