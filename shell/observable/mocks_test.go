package observable_test

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
)

type mockCommand struct {
	LoanID string
}

func (c mockCommand) CommandType() string {
	return "TestCommand"
}

type mockHandler struct {
	result shell.HandlerResult
	err    error
	calls  []mockCommand
	mu     sync.Mutex
}

func newMockHandler(result shell.HandlerResult, err error) *mockHandler {
	return &mockHandler{result: result, err: err}
}

func (h *mockHandler) Handle(_ context.Context, command mockCommand) (shell.HandlerResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, command)

	return h.result, h.err
}

func (h *mockHandler) GetCalls() []mockCommand {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]mockCommand(nil), h.calls...)
}

type mockQuery struct {
	BorrowerID string
}

func (q mockQuery) QueryType() string {
	return "TestQuery"
}

type mockResult struct {
	Value string
	Count int
}

type mockQueryHandler struct {
	result mockResult
	err    error
	calls  []mockQuery
	mu     sync.Mutex
}

func newMockQueryHandler(result mockResult, err error) *mockQueryHandler {
	return &mockQueryHandler{result: result, err: err}
}

func (h *mockQueryHandler) Handle(_ context.Context, query mockQuery) (mockResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, query)

	return h.result, h.err
}

func (h *mockQueryHandler) GetCalls() []mockQuery {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]mockQuery(nil), h.calls...)
}
