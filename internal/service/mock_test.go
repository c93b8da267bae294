package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/freeeve/dexter-sinister/internal/model"
	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// mockGameRepo keeps snapshots as JSON so every load goes through the
// same encoding Postgres stores.
type mockGameRepo struct {
	mu      sync.Mutex
	states  map[string][]byte
	created map[string]time.Time
	logs    map[string][]model.LogEntry
	saves   int
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		states:  make(map[string][]byte),
		created: make(map[string]time.Time),
		logs:    make(map[string][]model.LogEntry),
	}
}

func (m *mockGameRepo) put(g *dexter.Game, entries []dexter.LogEntry) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	m.states[g.ID] = data
	for _, e := range entries {
		m.logs[g.ID] = append(m.logs[g.ID], model.LogEntry{
			GameID: g.ID, Seq: e.Seq, Story: e.Story, Kind: e.Kind, Actor: e.Actor, Message: e.Message, CreatedAt: time.Now(),
		})
	}
	return nil
}

func (m *mockGameRepo) decode(id string) (*dexter.Game, error) {
	data, ok := m.states[id]
	if !ok {
		return nil, nil
	}
	var g dexter.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *mockGameRepo) Create(_ context.Context, g *dexter.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[g.ID]; ok {
		return fmt.Errorf("duplicate game %s", g.ID)
	}
	m.created[g.ID] = time.Now()
	return m.put(g, g.Log)
}

func (m *mockGameRepo) Save(_ context.Context, g *dexter.Game, prevVersion int, entries []dexter.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.decode(g.ID)
	if err != nil {
		return err
	}
	if cur == nil || cur.Version != prevVersion {
		return repository.ErrVersionConflict
	}
	m.saves++
	return m.put(g, entries)
}

func (m *mockGameRepo) Load(_ context.Context, gameID string) (*dexter.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decode(gameID)
}

func (m *mockGameRepo) summaries(keep func(model.Game) bool) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Game
	for id := range m.states {
		g, err := m.decode(id)
		if err != nil {
			return nil, err
		}
		s := model.SummaryOf(g)
		s.CreatedAt = m.created[id]
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	games, err := m.summaries(func(g model.Game) bool { return g.ID == id })
	if err != nil || len(games) == 0 {
		return nil, err
	}
	return &games[0], nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	return m.summaries(func(g model.Game) bool { return g.Status == model.GameLobby && g.Public })
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	return m.summaries(func(g model.Game) bool {
		for _, p := range g.Players {
			if p.UserID == userID {
				return true
			}
		}
		return false
	})
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	return m.summaries(func(g model.Game) bool { return g.Status == model.GameActive })
}

func (m *mockGameRepo) ListLog(_ context.Context, gameID string, since int) ([]model.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LogEntry
	for _, e := range m.logs[gameID] {
		if e.Seq > since {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, gameID)
	delete(m.logs, gameID)
	delete(m.created, gameID)
	return nil
}

type mockCache struct {
	mu    sync.Mutex
	games map[string]*dexter.Game
}

func newMockCache() *mockCache {
	return &mockCache{games: make(map[string]*dexter.Game)}
}

func (m *mockCache) SetGame(_ context.Context, g *dexter.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g.Clone()
	return nil
}

func (m *mockCache) GetGame(_ context.Context, gameID string) (*dexter.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

func (m *mockCache) DeleteGame(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	return nil
}

type recordedEvent struct {
	gameID    string
	eventType string
	data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{gameID, eventType, data})
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

type mockEventBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (m *mockEventBus) Publish(_ context.Context, gameID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = make(map[string][][]byte)
	}
	m.messages[gameID] = append(m.messages[gameID], payload)
	return nil
}

func (m *mockEventBus) Listen(ctx context.Context, _ func(string, []byte)) error {
	<-ctx.Done()
	return nil
}
