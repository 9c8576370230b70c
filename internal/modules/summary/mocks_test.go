package summary

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type genCall struct {
	prompt string
	opts   GenerateOptions
}

// fakeGenerator records every call and answers via respond, or with a
// numbered canned reply when respond is nil.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []genCall
	model   string
	respond func(prompt string, call int) (string, error)
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, opts GenerateOptions) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, genCall{prompt: prompt, opts: opts})
	n := len(g.calls)
	g.mu.Unlock()

	if g.respond != nil {
		return g.respond(prompt, n)
	}
	return fmt.Sprintf("generated text %d", n), nil
}

func (g *fakeGenerator) ModelID() string {
	if g.model == "" {
		return "test-model"
	}
	return g.model
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGenerator) prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	for i, c := range g.calls {
		out[i] = c.prompt
	}
	return out
}

// failOnPrompt makes the generator fail the first call whose prompt
// contains the marker and answer everything else normally.
func failOnPrompt(marker string) func(string, int) (string, error) {
	return func(prompt string, call int) (string, error) {
		if strings.Contains(prompt, marker) {
			return "", fmt.Errorf("model unavailable")
		}
		return fmt.Sprintf("generated text %d", call), nil
	}
}

// memVolatile is an in-memory VolatileStore. TTLs are recorded but never
// enforced; tests expire entries by deleting them.
type memVolatile struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	setNXed []string
}

func newMemVolatile() *memVolatile {
	return &memVolatile{data: map[string]string{}}
}

func (m *memVolatile) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.data[key], nil
}

func (m *memVolatile) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memVolatile) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, held := m.data[key]; held {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	m.setNXed = append(m.setNXed, key)
	return true, nil
}

func (m *memVolatile) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memVolatile) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string]string{}
}

func (m *memVolatile) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// memPersistent is an in-memory PersistentStore indexed both by parent
// and by fingerprint, like the real table.
type memPersistent struct {
	mu        sync.Mutex
	byParent  map[string]*SummaryArtifact
	upserts   int
	upsertErr error
	lookupErr error
}

func newMemPersistent() *memPersistent {
	return &memPersistent{byParent: map[string]*SummaryArtifact{}}
}

func parentKey(parent ParentRef, style Style) string {
	return fmt.Sprintf("%s|%s|%s", parent.Kind, parent.ID, style)
}

func (m *memPersistent) GetByParent(_ context.Context, parent ParentRef, style Style) (*SummaryArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	artifact, ok := m.byParent[parentKey(parent, style)]
	if !ok {
		return nil, nil
	}
	copied := *artifact
	return &copied, nil
}

func (m *memPersistent) GetByFingerprint(_ context.Context, contentHash string, style Style, model string) (*SummaryArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, artifact := range m.byParent {
		if artifact.ContentHash == contentHash && artifact.Style == style && artifact.Model == model {
			copied := *artifact
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memPersistent) Upsert(_ context.Context, parent ParentRef, artifact *SummaryArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *artifact
	m.byParent[parentKey(parent, artifact.Style)] = &copied
	m.upserts++
	return nil
}

func (m *memPersistent) DeleteByFingerprint(_ context.Context, contentHash string, style Style, model string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, artifact := range m.byParent {
		if artifact.ContentHash != contentHash {
			continue
		}
		if style != "" && artifact.Style != style {
			continue
		}
		if model != "" && artifact.Model != model {
			continue
		}
		delete(m.byParent, key)
		deleted++
	}
	return deleted, nil
}

func (m *memPersistent) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byParent)
}
