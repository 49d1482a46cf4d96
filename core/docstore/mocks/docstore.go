package mocks

import (
	"context"

	"ledger-reconciler/core/docstore"

	"github.com/stretchr/testify/mock"
)

// Gateway is a mock implementation of docstore.Gateway
type Gateway struct {
	mock.Mock
}

func (m *Gateway) Collection(name string) docstore.Collection {
	args := m.Called(name)
	return args.Get(0).(docstore.Collection)
}

// Collection is a mock implementation of docstore.Collection
type Collection struct {
	mock.Mock
}

func (m *Collection) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Collection) EnsureIndex(ctx context.Context, fields []string, unique bool) error {
	args := m.Called(ctx, fields, unique)
	return args.Error(0)
}

func (m *Collection) Upsert(ctx context.Context, filter docstore.Filter, update docstore.Update) (*docstore.Result, error) {
	args := m.Called(ctx, filter, update)
	if res, ok := args.Get(0).(*docstore.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Collection) UpdateIn(ctx context.Context, field string, values []string, update docstore.Update) (*docstore.Result, error) {
	args := m.Called(ctx, field, values, update)
	if res, ok := args.Get(0).(*docstore.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Collection) FindOne(ctx context.Context, filter docstore.Filter) (map[string]any, error) {
	args := m.Called(ctx, filter)
	if doc, ok := args.Get(0).(map[string]any); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}
