package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/content"
	"github.com/example/storefront/internal/infrastructure/kv"
)

// stubGenerator echoes the question and records what it was asked.
type stubGenerator struct {
	lastSystem  string
	lastHistory []Message
	err         error
}

func (g *stubGenerator) generate(ctx context.Context, system string, history []Message, question string) (string, error) {
	g.lastSystem = system
	g.lastHistory = history
	if g.err != nil {
		return "", g.err
	}
	return "answer to: " + question, nil
}

func newTestService(gen generator) (*Service, *kv.Memory) {
	store := kv.NewMemory()
	repo := content.NewMemoryRepository()
	repo.SetSetting("store_phone", "+90 555 111 22 33")
	repo.AddFAQ(content.FAQ{Question: "Minimum order?", Answer: "One series per model.", Active: true})
	return &Service{gen: gen, store: store, content: repo}, store
}

func TestAsk_PersistsTranscript(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestService(gen)
	session := NewSessionID()

	reply, err := svc.Ask(context.Background(), session, "Do you ship abroad?")
	require.NoError(t, err)
	assert.Equal(t, "answer to: Do you ship abroad?", reply)

	history, err := svc.History(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "Do you ship abroad?", history[0].Text)
	assert.Equal(t, "model", history[1].Role)
}

func TestAsk_SecondTurnSeesHistory(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestService(gen)
	session := NewSessionID()

	_, err := svc.Ask(context.Background(), session, "first")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), session, "second")
	require.NoError(t, err)

	require.Len(t, gen.lastHistory, 2)
	assert.Equal(t, "first", gen.lastHistory[0].Text)
}

func TestAsk_SystemPromptCarriesStoreContext(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestService(gen)

	_, err := svc.Ask(context.Background(), NewSessionID(), "hello")
	require.NoError(t, err)

	assert.Contains(t, gen.lastSystem, "store_phone: +90 555 111 22 33")
	assert.Contains(t, gen.lastSystem, "Minimum order?")
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc, _ := newTestService(&stubGenerator{})

	_, err := svc.Ask(context.Background(), NewSessionID(), "   ")
	assert.Error(t, err)
}

func TestAsk_GeneratorFailureDoesNotPersist(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("quota exceeded")}
	svc, _ := newTestService(gen)
	session := NewSessionID()

	_, err := svc.Ask(context.Background(), session, "hello")
	require.Error(t, err)

	history, err := svc.History(context.Background(), session)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistory_TruncatedToLimit(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newTestService(gen)
	session := NewSessionID()

	for i := 0; i < historyLimit; i++ {
		_, err := svc.Ask(context.Background(), session, fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), session)
	require.NoError(t, err)
	assert.Len(t, history, historyLimit)
	// Oldest turns fall off the front.
	assert.NotEqual(t, "q0", history[0].Text)
}

func TestHistory_CorruptDataYieldsEmpty(t *testing.T) {
	svc, store := newTestService(&stubGenerator{})
	session := NewSessionID()

	require.NoError(t, store.Set(context.Background(), historyPrefix+session, "{not json"))

	history, err := svc.History(context.Background(), session)
	require.NoError(t, err)
	assert.Empty(t, history)
}
