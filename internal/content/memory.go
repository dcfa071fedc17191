package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps content in memory. Used in tests and for
// running the API without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	settings map[string]string
	blocks   []Block
	faqs     []FAQ
	messages []ContactMessage
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{settings: make(map[string]string)}
}

func (r *MemoryRepository) SetSetting(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
}

func (r *MemoryRepository) AddBlock(b Block) Block {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	r.blocks = append(r.blocks, b)
	return b
}

func (r *MemoryRepository) AddFAQ(f FAQ) FAQ {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	r.faqs = append(r.faqs, f)
	return f
}

func (r *MemoryRepository) Settings(ctx context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.settings))
	for k, v := range r.settings {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryRepository) Setting(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.settings[key]
	if !ok {
		return "", ErrSettingNotFound
	}
	return v, nil
}

func (r *MemoryRepository) ActiveBlocks(ctx context.Context) ([]Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Block
	for _, b := range r.blocks {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *MemoryRepository) BlockBySection(ctx context.Context, section string) (Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.blocks {
		if b.Active && b.Section == section {
			return b, nil
		}
	}
	return Block{}, ErrBlockNotFound
}

func (r *MemoryRepository) ActiveFAQs(ctx context.Context) ([]FAQ, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []FAQ
	for _, f := range r.faqs {
		if f.Active {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *MemoryRepository) SaveContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error) {
	if err := msg.Validate(); err != nil {
		return ContactMessage{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, msg)
	return msg, nil
}

// Messages returns stored contact messages, newest last.
func (r *MemoryRepository) Messages() []ContactMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ContactMessage, len(r.messages))
	copy(out, r.messages)
	return out
}
