// Package local is a loopback messaging engine backed by a store. It keeps
// one session at a time and answers every engine operation from local
// state, delivering messages addressed to the logged-in user back to it.
package local

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

// DefaultProgressSteps is how many progress callbacks an attachment transfer reports.
const DefaultProgressSteps = 4

var _ engine.Engine = (*Engine)(nil)

var errNoSession = engine.NewError(engine.ErrCodeUserNotLoggedIn, "user not logged in")

// Translator translates text messages.
type Translator interface {
	Translate(ctx context.Context, text, language string) (string, error)
	Languages(ctx context.Context) ([]*core.Language, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgressSteps sets how many progress callbacks transfers report.
func WithProgressSteps(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.steps = n
		}
	}
}

// WithTranslator enables message translation.
func WithTranslator(t Translator) Option {
	return func(e *Engine) { e.translator = t }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine implements engine.Engine on top of a store.Store.
type Engine struct {
	store      store.Store
	log        *zerolog.Logger
	translator Translator
	steps      int
	now        func() time.Time
	newID      func() string

	mu         sync.RWMutex
	user       string
	remote     *conversationPage
	msgListen  []engine.MessageListener
	convListen []engine.ConversationListener
	transfers  sync.WaitGroup
}

// New creates an engine over st.
func New(st store.Store, logger *zerolog.Logger, opts ...Option) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "engine").Logger()
	e := &Engine{
		store:  st,
		log:    &l,
		steps:  DefaultProgressSteps,
		now:    time.Now,
		newID:  uuid.NewString,
		remote: newConversationPage(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ==== Session ====

// Login opens a session for username, replacing any previous one.
func (e *Engine) Login(ctx context.Context, username string) error {
	if username == "" {
		return engine.NewError(engine.ErrCodeInvalidParam, "username is empty")
	}
	convs, err := e.store.ListConversations(ctx, username)
	if err != nil {
		return engine.NewError(engine.ErrCodeGeneral, err.Error())
	}

	e.mu.Lock()
	prev := e.user
	e.user = username
	e.remote = newConversationPage(convs)
	e.mu.Unlock()

	if prev != "" && prev != username {
		e.log.Info().Str("user", prev).Msg("session replaced")
	}
	e.log.Info().Str("user", username).Int("conversations", len(convs)).Msg("session opened")
	e.notifyConversationUpdate()
	return nil
}

// Logout closes the current session.
func (e *Engine) Logout(_ context.Context) error {
	e.mu.Lock()
	user := e.user
	e.user = ""
	e.remote = newConversationPage(nil)
	e.mu.Unlock()

	if user != "" {
		e.log.Info().Str("user", user).Msg("session closed")
	}
	return nil
}

// CurrentUser returns the logged-in user, or "".
func (e *Engine) CurrentUser() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.user
}

// Wait blocks until every transfer started so far has reported its outcome.
func (e *Engine) Wait() {
	e.transfers.Wait()
}

func (e *Engine) session() (string, error) {
	user := e.CurrentUser()
	if user == "" {
		return "", errNoSession
	}
	return user, nil
}

func (e *Engine) page() *conversationPage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.remote
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}

// storeError maps store failures onto engine errors. A missing record
// becomes notFoundCode.
func storeError(err error, notFoundCode int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return engine.NewError(notFoundCode, err.Error())
	}
	return engine.NewError(engine.ErrCodeGeneral, err.Error())
}

// ==== ListenerRegistry ====

func (e *Engine) AddMessageListener(l engine.MessageListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgListen = append(e.msgListen, l)
}

func (e *Engine) RemoveMessageListener(l engine.MessageListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.msgListen {
		if cur == l {
			e.msgListen = append(e.msgListen[:i:i], e.msgListen[i+1:]...)
			return
		}
	}
}

func (e *Engine) AddConversationListener(l engine.ConversationListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.convListen = append(e.convListen, l)
}

func (e *Engine) RemoveConversationListener(l engine.ConversationListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.convListen {
		if cur == l {
			e.convListen = append(e.convListen[:i:i], e.convListen[i+1:]...)
			return
		}
	}
}

func (e *Engine) messageListeners() []engine.MessageListener {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]engine.MessageListener(nil), e.msgListen...)
}

func (e *Engine) conversationListeners() []engine.ConversationListener {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]engine.ConversationListener(nil), e.convListen...)
}

func (e *Engine) notifyMessages(fn func(engine.MessageListener)) {
	for _, l := range e.messageListeners() {
		fn(l)
	}
}

func (e *Engine) notifyConversationUpdate() {
	for _, l := range e.conversationListeners() {
		l.OnConversationUpdate()
	}
}
