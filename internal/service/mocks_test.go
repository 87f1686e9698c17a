package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/basel-ax/promptpix/internal/domain"
)

type mockGenerator struct {
	calls        int
	lastPrompt   string
	generateFunc func(ctx context.Context, prompt string) (*domain.GeneratedImage, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return &domain.GeneratedImage{Data: []byte("fake-image"), ContentType: "image/jpeg"}, nil
}

type mockStore struct {
	puts    int
	objects []domain.StoredObject
	putFunc func(data []byte, contentType string) (string, error)
	listErr error
}

func (m *mockStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	m.puts++
	if m.putFunc != nil {
		return m.putFunc(data, contentType)
	}
	url := fmt.Sprintf("https://cdn.example.com/%d.jpg", m.puts)
	m.objects = append(m.objects, domain.StoredObject{Key: fmt.Sprintf("%d.jpg", m.puts), URL: url})
	return url, nil
}

func (m *mockStore) List(ctx context.Context) ([]domain.StoredObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

// memoryRepo is an in-memory ImageRepository with a strictly increasing clock
type memoryRepo struct {
	mu        sync.Mutex
	records   []domain.ImageRecord
	clock     time.Time
	appends   int
	appendErr error
	recentErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memoryRepo) Append(ctx context.Context, prompt, imageURL string, generationTime float64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends++
	if r.appendErr != nil {
		return "", r.appendErr
	}
	r.clock = r.clock.Add(time.Second)
	id := fmt.Sprintf("rec-%d", len(r.records)+1)
	r.records = append(r.records, domain.ImageRecord{
		ID:             id,
		Prompt:         prompt,
		ImageURL:       imageURL,
		GenerationTime: generationTime,
		CreatedAt:      r.clock,
	})
	return id, nil
}

func (r *memoryRepo) Recent(ctx context.Context, limit int) ([]domain.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	if limit <= 0 {
		return []domain.ImageRecord{}, nil
	}
	if limit > domain.MaxHistory {
		limit = domain.MaxHistory
	}
	out := append([]domain.ImageRecord(nil), r.records...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) ImageURLs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	urls := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		urls = append(urls, rec.ImageURL)
	}
	return urls, nil
}
