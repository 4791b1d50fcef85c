// Package dispatch routes named requests to handlers that drive the
// messaging engine.
package dispatch

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/conversation"
	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
	"github.com/vovakirdan/wirechat-bridge/internal/executor"
	"github.com/vovakirdan/wirechat-bridge/internal/operation"
)

// Handler serves one method.
type Handler func(ctx context.Context, p Params) (any, error)

// Fallback receives every method the dispatcher does not know.
type Fallback interface {
	Dispatch(ctx context.Context, method string, p Params) (any, error)
}

// FallbackFunc adapts a function to Fallback.
type FallbackFunc func(ctx context.Context, method string, p Params) (any, error)

func (f FallbackFunc) Dispatch(ctx context.Context, method string, p Params) (any, error) {
	return f(ctx, method, p)
}

// Unsupported answers every method with an unsupported error.
var Unsupported Fallback = FallbackFunc(func(_ context.Context, method string, _ Params) (any, error) {
	return nil, core.UnsupportedError(method)
})

var errNotCombine = errors.New("not a combine message")

// Outcome labels passed to observers.
const (
	OutcomeOK = "ok"
	// OutcomeError labels a fallback error that is not a *core.CoreError.
	OutcomeError = "error"
)

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Engine        engine.Engine
	Tracker       *operation.Tracker
	Conversations *conversation.Synchronizer
	Executor      *executor.Pool
	Fallback      Fallback
	Logger        *zerolog.Logger
	// Observer, when set, is called once per dispatched request with the
	// method and either OutcomeOK or the error kind.
	Observer func(method, outcome string)
}

// Dispatcher validates requests and hands them to the engine.
type Dispatcher struct {
	engine   engine.Engine
	tracker  *operation.Tracker
	convs    *conversation.Synchronizer
	exec     *executor.Pool
	fallback Fallback
	log      *zerolog.Logger
	observe  func(method, outcome string)

	handlers map[string]Handler
	newID    func() string
}

// New builds a dispatcher with every handler registered.
func New(deps Deps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "dispatch").Logger()
	fallback := deps.Fallback
	if fallback == nil {
		fallback = Unsupported
	}
	d := &Dispatcher{
		engine:   deps.Engine,
		tracker:  deps.Tracker,
		convs:    deps.Conversations,
		exec:     deps.Executor,
		fallback: fallback,
		log:      &l,
		observe:  deps.Observer,
		handlers: make(map[string]Handler),
		newID:    uuid.NewString,
	}
	d.registerMessageHandlers()
	d.registerConversationHandlers()
	d.registerReactionHandlers()
	return d
}

func (d *Dispatcher) handle(method string, h Handler) {
	if _, exists := d.handlers[method]; exists {
		panic("dispatch: duplicate handler for " + method)
	}
	d.handlers[method] = h
}

// Methods lists the method names served directly, sorted.
func (d *Dispatcher) Methods() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch serves one request. Handler errors are always *core.CoreError.
// Unknown methods go to the fallback, whose result and error are returned
// untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, p Params) (any, error) {
	if p == nil {
		p = Params{}
	}
	h, ok := d.handlers[method]
	if !ok {
		res, err := d.fallback.Dispatch(ctx, method, p)
		d.report(method, outcomeOf(err))
		return res, err
	}

	res, err := h(ctx, p)
	if err != nil {
		cerr := toCoreError(err)
		d.log.Debug().Str("method", method).Str("kind", string(cerr.Kind)).Int("code", cerr.Code).Str("error", cerr.Message).Msg("request failed")
		d.report(method, string(cerr.Kind))
		return nil, cerr
	}
	d.report(method, OutcomeOK)
	return res, nil
}

// outcomeOf labels a fallback result without rewriting its error.
func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if cerr, ok := core.AsCoreError(err); ok {
		return string(cerr.Kind)
	}
	return OutcomeError
}

func (d *Dispatcher) report(method, outcome string) {
	if d.observe != nil {
		d.observe(method, outcome)
	}
}

// background runs fn on the executor and waits for it.
func (d *Dispatcher) background(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return d.exec.Do(ctx, fn)
}

// backgroundAck runs fn on the executor and replies true on success.
func (d *Dispatcher) backgroundAck(ctx context.Context, fn func(ctx context.Context) error) (any, error) {
	return d.exec.Do(ctx, func(ctx context.Context) (any, error) {
		if err := fn(ctx); err != nil {
			return nil, err
		}
		return true, nil
	})
}

func toCoreError(err error) *core.CoreError {
	if cerr, ok := core.AsCoreError(err); ok {
		return cerr
	}
	var ee *engine.Error
	if errors.As(err, &ee) {
		return core.EngineError(ee.Code, ee.Description)
	}
	return core.EngineError(engine.ErrCodeGeneral, err.Error())
}
