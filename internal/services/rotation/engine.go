package rotation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/statevault/statevault/internal/crypto"
	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
	"github.com/statevault/statevault/internal/services/session"
	"github.com/statevault/statevault/internal/state"
)

// EventType identifies a rotation progress event.
type EventType string

const (
	// EventInitialized is emitted once, before any value is touched.
	EventInitialized EventType = "initialized"
	// EventStepCompleted is emitted after each value is settled.
	EventStepCompleted EventType = "step_completed"
	// EventCompleted is emitted after the rotated state is saved.
	EventCompleted EventType = "completed"
)

// step pairs a protected value with its field path for the duration of
// a rotation pass.
type step struct {
	path  string
	value *crypto.Value
}

// Event reports rotation progress.
type Event struct {
	Type EventType `json:"type"`
	// Steps is the total number of values to rotate, set on the
	// initialized event.
	Steps int `json:"steps,omitempty"`
	// Path is the field path of the value just settled.
	Path string `json:"path,omitempty"`
}

// Engine re-protects every value in a state under a new password. The
// pass is two-phase: independent values first, then hashes computed
// over other fields, in dependency order, so no hash is ever computed
// from a value that still reflects the old password.
type Engine struct {
	store     state.Store
	session   *session.Session
	logger    *events.Logger
	stepDelay time.Duration

	events chan Event

	mu       sync.Mutex
	rotating bool
}

// NewEngine creates a rotation engine.
func NewEngine(store state.Store, sess *session.Session, stepDelay time.Duration, logger *events.Logger) *Engine {
	return &Engine{
		store:     store,
		session:   sess,
		logger:    logger.WithField("component", "rotation_engine"),
		stepDelay: stepDelay,
		events:    make(chan Event, 64),
	}
}

// Events returns the progress event channel. Events are dropped, not
// blocked on, when the consumer falls behind.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Rotate re-protects every initialized value in st under newPassword,
// updates the session, and saves the signed state. On error the state
// may hold a mix of old and new protections and must not be saved; the
// caller should reload it.
func (e *Engine) Rotate(ctx context.Context, st *models.State, oldPassword, newPassword string) error {
	e.mu.Lock()
	if e.rotating {
		e.mu.Unlock()
		return models.ErrRotationInProgress
	}
	e.rotating = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.rotating = false
		e.mu.Unlock()
	}()

	if !crypto.Verify([]byte(oldPassword), st.Password.DataString()) {
		return &models.RotationError{Phase: "verify", Err: models.ErrInvalidPassword}
	}

	oldKey := []byte(oldPassword)
	newKey := []byte(newPassword)

	var steps []step
	if err := st.Visit(func(path string, v *crypto.Value) error {
		steps = append(steps, step{path: path, value: v})
		return nil
	}); err != nil {
		return &models.RotationError{Phase: "enumerate", Err: err}
	}

	e.logger.WithField("steps", len(steps)).Info("Rotation started")
	e.emit(Event{Type: EventInitialized, Steps: len(steps)})

	// Phase 1: settle everything that does not depend on other fields.
	// Dependent hashes are deferred so they are recomputed only from
	// settled inputs.
	settled := make(map[string]bool)
	var deferred []step

	for _, s := range steps {
		if err := e.pace(ctx); err != nil {
			return &models.RotationError{Phase: "reprotect", Path: s.path, Err: err}
		}

		mode := s.value.Mode()
		switch {
		case mode.IsPasswordHash():
			replacement, err := crypto.NewValue(newKey, crypto.ModePasswordHash, nil, nil)
			if err != nil {
				return &models.RotationError{Phase: "reprotect", Path: s.path, Err: err}
			}
			s.value.Assign(replacement)

		case mode.IsSignatureHash():
			// Recomputed from the final state at save time; nothing to
			// carry over.

		case mode.ShouldHash():
			if len(s.value.RelatedKeys()) > 0 {
				deferred = append(deferred, s)
				continue
			}
			// A plain hash without inputs cannot be recomputed; its
			// plaintext is gone. It survives unchanged.

		case mode.ShouldHmac():
			// A keyed digest is bound to the old password but holds no
			// recoverable plaintext of its own. Recompute it from its
			// related fields when it has them, or from the constructor
			// cache while that is still warm; otherwise it keeps its
			// old key and is reported, never treated as a secret to
			// decrypt.
			if len(s.value.RelatedKeys()) > 0 {
				deferred = append(deferred, s)
				continue
			}
			if raw, err := s.value.RawData(oldKey); err == nil {
				replacement, err := crypto.NewValue(raw, mode, newKey, nil)
				if err != nil {
					return &models.RotationError{Phase: "reprotect", Path: s.path, Err: err}
				}
				s.value.Assign(replacement)
			} else {
				e.logger.WithField("path", s.path).Warn("Keyed digest has no recoverable input, left under old key")
			}

		default:
			raw, err := s.value.RawData(oldKey)
			if err != nil {
				return &models.RotationError{Phase: "reprotect", Path: s.path, Err: err}
			}
			replacement, err := crypto.NewValue(raw, mode, newKey, s.value.RelatedKeys())
			if err != nil {
				return &models.RotationError{Phase: "reprotect", Path: s.path, Err: err}
			}
			s.value.Assign(replacement)
		}

		settled[s.path] = true
		e.logger.WithField("path", s.path).Debug("Value rotated")
		e.emit(Event{Type: EventStepCompleted, Path: s.path})
	}

	// Phase 2: dependent hashes, in topological order of their inputs.
	if err := e.rotateDependent(ctx, st, deferred, settled, newKey); err != nil {
		return err
	}

	e.session.SetPassword(newPassword)

	if err := e.store.Save(st, newPassword); err != nil {
		return &models.RotationError{Phase: "save", Err: err}
	}

	e.logger.Info("Rotation completed")
	e.emit(Event{Type: EventCompleted})
	return nil
}

// rotateDependent settles hashes computed over other state fields. The
// order is a topological sort over related-key edges between deferred
// values; a cycle, or an input naming a protected value that never
// settles, is a hard error rather than a silently stale hash.
func (e *Engine) rotateDependent(ctx context.Context, st *models.State, deferred []step, settled map[string]bool, newKey []byte) error {
	if len(deferred) == 0 {
		return nil
	}

	pending := make(map[string]*crypto.Value, len(deferred))
	order := make([]string, 0, len(deferred))
	for _, s := range deferred {
		pending[s.path] = s.value
		order = append(order, s.path)
	}

	for len(pending) > 0 {
		progressed := false

		for _, path := range order {
			v, ok := pending[path]
			if !ok {
				continue
			}

			ready := true
			for _, dep := range v.RelatedKeys() {
				if _, deferredToo := pending[dep]; deferredToo {
					ready = false
					break
				}
				if protected, err := st.ValueAt(dep); err == nil && !protected.IsZero() && !settled[dep] {
					return &models.RotationError{Phase: "dependent-hash", Path: path,
						Err: fmt.Errorf("%w: %s", models.ErrDependencyUnsettled, dep)}
				}
			}
			if !ready {
				continue
			}

			if err := e.pace(ctx); err != nil {
				return &models.RotationError{Phase: "dependent-hash", Path: path, Err: err}
			}

			input, err := renderRelated(st, v.RelatedKeys())
			if err != nil {
				return &models.RotationError{Phase: "dependent-hash", Path: path, Err: err}
			}

			replacement, err := crypto.NewValue(input, v.Mode(), newKey, v.RelatedKeys())
			if err != nil {
				return &models.RotationError{Phase: "dependent-hash", Path: path, Err: err}
			}
			v.Assign(replacement)

			delete(pending, path)
			settled[path] = true
			progressed = true
			e.logger.WithField("path", path).Debug("Dependent hash recomputed")
			e.emit(Event{Type: EventStepCompleted, Path: path})
		}

		if !progressed {
			remaining := make([]string, 0, len(pending))
			for _, path := range order {
				if _, ok := pending[path]; ok {
					remaining = append(remaining, path)
				}
			}
			return &models.RotationError{Phase: "dependent-hash", Path: remaining[0],
				Err: fmt.Errorf("%w: %v", models.ErrDependencyCycle, remaining)}
		}
	}

	return nil
}

// renderRelated resolves each related field path against the serialized
// state and joins the rendered values with newlines, forming the input a
// dependent hash is computed over. Strings render bare; anything else
// renders as its JSON form.
func renderRelated(st *models.State, keys []string) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("reparse state: %w", err)
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		node, ok := models.LookupJSON(doc, key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrValueNotFound, key)
		}
		if s, isString := node.(string); isString {
			parts = append(parts, s)
			continue
		}
		rendered, err := json.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", key, err)
		}
		parts = append(parts, string(rendered))
	}

	out := []byte(parts[0])
	for _, p := range parts[1:] {
		out = append(out, '\n')
		out = append(out, p...)
	}
	return out, nil
}

// pace waits the configured delay between steps, honoring cancellation.
func (e *Engine) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.stepDelay == 0 {
		return nil
	}
	select {
	case <-time.After(e.stepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.WithField("type", string(ev.Type)).Warn("Progress event dropped")
	}
}
