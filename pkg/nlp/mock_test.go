package nlp_test

import (
	"context"
	"sync"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// scriptedClient returns errs in order, then succeeds.
type scriptedClient struct {
	mu     sync.Mutex
	errs   []error
	calls  int
	closed bool
}

func (m *scriptedClient) next() (*types.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return &types.Response{Content: "ok"}, nil
}

func (m *scriptedClient) Chat(context.Context, []types.Message) (*types.Response, error) {
	return m.next()
}

func (m *scriptedClient) ChatWithStructuredOutput(context.Context, []types.Message, any) (*types.Response, error) {
	return m.next()
}

func (m *scriptedClient) Close() error {
	m.closed = true
	return nil
}
