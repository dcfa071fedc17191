// Package chat implements the Gemini-backed support assistant. Each
// shopper gets a session ID; the transcript lives in the kv store so the
// assistant keeps context across requests.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/example/storefront/internal/content"
	"github.com/example/storefront/internal/infrastructure/kv"
)

const (
	defaultModel  = "gemini-1.5-flash"
	historyPrefix = "storefront_chat_"
	// historyLimit caps stored turns so sessions don't grow unbounded.
	historyLimit = 40
)

// Message is one transcript entry.
type Message struct {
	Role string    `json:"role"` // "user" or "model"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// generator is the model call behind Ask. Production uses Gemini; tests
// substitute a stub.
type generator interface {
	generate(ctx context.Context, system string, history []Message, question string) (string, error)
}

// Service answers shopper questions with store context.
type Service struct {
	gen     generator
	store   kv.Store
	content content.Repository
}

// NewService creates the Gemini client and the chat service.
func NewService(ctx context.Context, apiKey, modelName string, store kv.Store, contentRepo content.Repository) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}
	return &Service{
		gen:     &geminiGenerator{client: client, model: modelName},
		store:   store,
		content: contentRepo,
	}, nil
}

// NewSessionID mints a session identifier for a shopper.
func NewSessionID() string {
	return uuid.New().String()
}

// Ask sends a question within a session and returns the assistant reply.
// The transcript is persisted after a successful turn.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	history, err := s.History(ctx, sessionID)
	if err != nil {
		return "", err
	}

	reply, err := s.gen.generate(ctx, s.systemPrompt(ctx), history, question)
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", err)
	}

	now := time.Now()
	history = append(history,
		Message{Role: "user", Text: question, At: now},
		Message{Role: "model", Text: reply, At: now},
	)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	if err := s.saveHistory(ctx, sessionID, history); err != nil {
		log.Printf("[Chat] Failed to persist session %s: %v", sessionID, err)
	}
	return reply, nil
}

// History returns the stored transcript for a session. An unknown or
// corrupt session yields an empty transcript.
func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	raw, ok, err := s.store.Get(ctx, historyPrefix+sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var history []Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		log.Printf("[Chat] Discarding corrupt history for session %s: %v", sessionID, err)
		return nil, nil
	}
	return history, nil
}

func (s *Service) saveHistory(ctx context.Context, sessionID string, history []Message) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, historyPrefix+sessionID, string(raw))
}

// systemPrompt assembles the store context the assistant answers from.
// Content lookups are best-effort; the assistant still works without them.
func (s *Service) systemPrompt(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("You are the support assistant of a wholesale apparel storefront. ")
	b.WriteString("Answer briefly and only about the store: products are sold in size series to business buyers. ")
	b.WriteString("If you do not know, say so and point the shopper to the contact form.\n")

	if settings, err := s.content.Settings(ctx); err == nil && len(settings) > 0 {
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Store details:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, settings[k])
		}
	}
	if faqs, err := s.content.ActiveFAQs(ctx); err == nil && len(faqs) > 0 {
		b.WriteString("Frequently asked questions:\n")
		for _, f := range faqs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", f.Question, f.Answer)
		}
	}
	return b.String()
}

// geminiGenerator runs one chat turn against the Gemini API.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) generate(ctx context.Context, system string, history []Message, question string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	cs := model.StartChat()
	cs.History = make([]*genai.Content, 0, len(history))
	for _, m := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  m.Role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}

	res, err := cs.SendMessage(ctx, genai.Text(question))
	if err != nil {
		return "", err
	}
	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return fmt.Sprintf("%v", res.Candidates[0].Content.Parts[0]), nil
}
