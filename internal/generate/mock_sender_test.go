package generate

import (
	"context"
	"encoding/json"
	"sync"

	"captionline/internal/api"
)

// sentRequest records one call made through mockSender.
type sentRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// mockSender is a mock implementation of api.Sender for testing.
type mockSender struct {
	mu sync.Mutex

	// SendFunc overrides the default response.
	SendFunc func(ctx context.Context, method, path string, body any) (*api.Envelope, error)

	Calls []sentRequest
}

func (m *mockSender) Send(ctx context.Context, method, path string, body any) (*api.Envelope, error) {
	var decoded map[string]any
	if body != nil {
		data, _ := json.Marshal(body)
		_ = json.Unmarshal(data, &decoded)
	}
	m.mu.Lock()
	m.Calls = append(m.Calls, sentRequest{Method: method, Path: path, Body: decoded})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, method, path, body)
	}
	return &api.Envelope{
		Status: api.StatusSuccess,
		Data:   json.RawMessage(`{"result":{"tool":"caption","output":"mock output","generationId":"g-mock"}}`),
	}, nil
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
