package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"fieldvisits_backend/internal/adapters/storage"
	"fieldvisits_backend/internal/events"
	"fieldvisits_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// memStore is an in-memory Store and AttachmentStore.
type memStore struct {
	mu          sync.Mutex
	visits      map[uuid.UUID]domain.Visit
	properties  map[uuid.UUID]domain.Property
	attachments []domain.Attachment
	failList    error
}

func newMemStore() *memStore {
	return &memStore{
		visits:     make(map[uuid.UUID]domain.Visit),
		properties: make(map[uuid.UUID]domain.Property),
	}
}

func (m *memStore) withProperty(v domain.Visit) domain.Visit {
	if p, ok := m.properties[v.PropertyID]; ok {
		v.Property = &p
	}
	return v
}

func (m *memStore) Create(_ context.Context, v *domain.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *v
	stored.Property = nil
	m.visits[v.ID] = stored
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, domain.VisitNotFound()
	}
	v = m.withProperty(v)
	return &v, nil
}

func (m *memStore) UpdateLifecycle(_ context.Context, v *domain.Visit, from domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.visits[v.ID]
	if !ok {
		return domain.VisitNotFound()
	}
	if current.Status != from {
		return domain.InvalidState(current.Status, "update")
	}
	stored := *v
	stored.Property = nil
	m.visits[v.ID] = stored
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[id]; !ok {
		return domain.VisitNotFound()
	}
	delete(m.visits, id)
	return nil
}

func (m *memStore) ListForAgentBetween(_ context.Context, agentID uuid.UUID, from, to time.Time) ([]domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var out []domain.Visit
	for _, v := range m.visits {
		if v.AgentID == agentID && !v.ScheduledStart.Before(from) && v.ScheduledStart.Before(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, p domain.ListParams) ([]domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Visit
	for _, v := range m.visits {
		if p.ID != nil && v.ID != *p.ID {
			continue
		}
		if p.AgentID != nil && v.AgentID != *p.AgentID {
			continue
		}
		if p.From != nil && v.ScheduledStart.Before(*p.From) {
			continue
		}
		if p.To != nil && !v.ScheduledStart.Before(*p.To) {
			continue
		}
		if p.Outcome != nil && (v.Outcome == nil || *v.Outcome != *p.Outcome) {
			continue
		}
		if p.Status != nil && v.Status != *p.Status {
			continue
		}
		out = append(out, m.withProperty(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out, nil
}

func (m *memStore) CountByProperty(_ context.Context, propertyID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.visits {
		if v.PropertyID == propertyID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListPendingEndedBefore(_ context.Context, cutoff time.Time) ([]domain.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Visit
	for _, v := range m.visits {
		if v.Status == domain.StatusPending && v.ScheduledEnd().Before(cutoff) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) DeleteByAgent(_ context.Context, agentID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, v := range m.visits {
		if v.AgentID == agentID {
			delete(m.visits, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateAttachment(_ context.Context, a *domain.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments = append(m.attachments, *a)
	return nil
}

func (m *memStore) ListAttachments(_ context.Context, visitID uuid.UUID) ([]domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Attachment
	for _, a := range m.attachments {
		if a.VisitID == visitID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetProperty(_ context.Context, id uuid.UUID) (domain.Property, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	return p, ok, nil
}

type fakeAgents map[uuid.UUID]domain.Agent

func (f fakeAgents) GetAgent(_ context.Context, id uuid.UUID) (domain.Agent, bool, error) {
	a, ok := f[id]
	return a, ok, nil
}

type noopLocker struct{ calls int }

func (l *noopLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	l.calls++
	return func() {}, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type scheduledCheck struct {
	visitID uuid.UUID
	runAt   time.Time
}

type fakeMissed struct{ scheduled []scheduledCheck }

func (f *fakeMissed) ScheduleMissedVisitCheck(_ context.Context, visitID uuid.UUID, runAt time.Time) error {
	f.scheduled = append(f.scheduled, scheduledCheck{visitID, runAt})
	return nil
}

type passwordVerifier map[uuid.UUID]string

func (p passwordVerifier) VerifyCredential(_ context.Context, userID uuid.UUID, plaintext string) (bool, error) {
	return p[userID] == plaintext, nil
}

type fakeStorage struct {
	uploaded map[string][]byte
}

func (f *fakeStorage) ValidateContentType(contentType string) error {
	if contentType != "image/jpeg" {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func (f *fakeStorage) ValidateFileSize(size int64) error {
	if size <= 0 || size > 1024 {
		return fmt.Errorf("file size %d out of range", size)
	}
	return nil
}

func (f *fakeStorage) UploadFile(_ context.Context, bucket, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	if f.uploaded == nil {
		f.uploaded = make(map[string][]byte)
	}
	f.uploaded[bucket+"/"+key] = body
	return key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, bucket, fileKey string) error {
	delete(f.uploaded, bucket+"/"+fileKey)
	return nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.test/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}
