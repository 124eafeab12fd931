package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jyotish-ai/server/internal/agent/graph"
	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/astro/normalize"
	errx "github.com/jyotish-ai/server/internal/core/error"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

const (
	MissingFieldsMessage = "Please fill in all fields."
	EmptyAnswerMessage   = "Sorry, I encountered an error."
)

var (
	ErrUnauthorized = errx.New(nil, http.StatusUnauthorized, "invalid password")
	ErrNotFound     = errx.New(nil, http.StatusNotFound, "session not found")
)

// AgentFactory builds the agent handle for one session.
type AgentFactory func(ctx context.Context, sessionID string) (graph.Runner, error)

// PasswordVerifier is satisfied by *auth.Gate.
type PasswordVerifier interface {
	Verify(ctx context.Context, candidate string) bool
}

type StartRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
	TOB      string `json:"tob"`
	City     string `json:"city"`
}

type entry struct {
	session model.ChatSession
	agent   graph.Runner
}

// Manager holds process-local sessions. The durable message log lives in
// the conversation repository and outlives the process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	factory AgentFactory
	history model.ConversationRepository
	gate    PasswordVerifier
	now     func() time.Time
}

func NewManager(factory AgentFactory, history model.ConversationRepository, gate PasswordVerifier) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		factory:  factory,
		history:  history,
		gate:     gate,
		now:      time.Now,
	}
}

// Start checks the password and profile, then registers the session keyed by email.
func (m *Manager) Start(ctx context.Context, req StartRequest) (model.ChatSession, error) {
	if !m.gate.Verify(ctx, req.Password) {
		return model.ChatSession{}, ErrUnauthorized
	}

	id := strings.TrimSpace(req.Email)
	city := strings.TrimSpace(req.City)
	if id == "" || strings.TrimSpace(req.DOB) == "" || strings.TrimSpace(req.TOB) == "" || city == "" {
		return model.ChatSession{}, errx.NewInput(MissingFieldsMessage)
	}
	dob, err := normalize.CanonicalDate(req.DOB)
	if err != nil {
		return model.ChatSession{}, errx.NewInput(normalize.InvalidDateMessage)
	}
	tob, err := normalize.Time(req.TOB)
	if err != nil {
		return model.ChatSession{}, errx.NewInput(normalize.InvalidTimeMessage)
	}

	sess := model.ChatSession{
		ID:        id,
		Profile:   model.Profile{DOB: dob, TOB: tob.String(), City: city},
		StartedAt: m.now().UTC(),
	}

	agent, err := m.factory(ctx, id)
	if err != nil {
		// Recreated on the first question.
		logx.Warn().Err(err).Str("session_id", id).Msg("agent creation failed at session start")
		agent = nil
	}

	m.mu.Lock()
	m.sessions[id] = &entry{session: sess, agent: agent}
	m.mu.Unlock()

	logx.Info().Str("session_id", id).Msg("session started")
	return sess, nil
}

// Get returns the live session for id.
func (m *Manager) Get(id string) (model.ChatSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return model.ChatSession{}, false
	}
	return e.session, true
}

// Ask runs one agent turn for the session.
func (m *Manager) Ask(ctx context.Context, id, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errx.NewInput("question is required")
	}

	sess, agent, err := m.agentFor(ctx, id)
	if err != nil {
		return "", err
	}

	answer, err := agent.Invoke(ctx, model.QueryInput{
		ConversationID: sess.ID,
		Profile:        sess.Profile,
		Query:          question,
	})
	if err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("agent invocation failed")
		return "", newAgentError(err)
	}
	if strings.TrimSpace(answer) == "" {
		return EmptyAnswerMessage, nil
	}
	return answer, nil
}

func (m *Manager) agentFor(ctx context.Context, id string) (model.ChatSession, graph.Runner, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return model.ChatSession{}, nil, ErrNotFound
	}
	sess, agent := e.session, e.agent
	m.mu.Unlock()

	if agent != nil {
		return sess, agent, nil
	}

	logx.Warn().Str("session_id", id).Msg("agent missing in session; recreating")
	agent, err := m.factory(ctx, id)
	if err != nil {
		return sess, nil, newAgentError(err)
	}

	m.mu.Lock()
	if cur, ok := m.sessions[id]; ok && cur.agent == nil {
		cur.agent = agent
	}
	m.mu.Unlock()
	return sess, agent, nil
}

// History renders the durable log for a live session.
func (m *Manager) History(ctx context.Context, id string) ([]RenderedMessage, error) {
	if _, ok := m.Get(id); !ok {
		return nil, ErrNotFound
	}
	h, err := m.history.LoadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderHistory(h.Messages), nil
}

// End drops the process-local session. With purge the durable log is cleared too,
// even when the session is no longer live in this process.
func (m *Manager) End(ctx context.Context, id string, purge bool) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if purge {
		if err := m.history.ClearHistory(ctx, id); err != nil {
			return err
		}
		logx.Info().Str("session_id", id).Msg("session history purged")
		return nil
	}
	if !ok {
		return ErrNotFound
	}
	logx.Info().Str("session_id", id).Msg("session ended")
	return nil
}
