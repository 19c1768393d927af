package service

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model/event"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"github.com/stretchr/testify/mock"
)

// flakyStore 讓交易內的 SaveProduct 先回傳 staleLeft 次 ErrStaleProduct, 或固定回傳 saveErr
type flakyStore struct {
	db.UnifiedDB
	mu        sync.Mutex
	staleLeft int
	saveErr   error
	saves     int
}

func (f *flakyStore) ExecTx(ctx context.Context, fn func(tx db.UnifiedDB) error) error {
	return f.UnifiedDB.ExecTx(ctx, func(tx db.UnifiedDB) error {
		return fn(&flakyTx{UnifiedDB: tx, parent: f})
	})
}

type flakyTx struct {
	db.UnifiedDB
	parent *flakyStore
}

func (t *flakyTx) SaveProduct(ctx context.Context, product *model.Product) error {
	t.parent.mu.Lock()
	t.parent.saves++
	if t.parent.staleLeft > 0 {
		t.parent.staleLeft--
		t.parent.mu.Unlock()
		return db.ErrStaleProduct
	}
	saveErr := t.parent.saveErr
	t.parent.mu.Unlock()
	if saveErr != nil {
		return saveErr
	}
	return t.UnifiedDB.SaveProduct(ctx, product)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...event.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func publishedTypes(m *mockPublisher) []event.EventType {
	var types []event.EventType
	for _, call := range m.Calls {
		for _, evt := range call.Arguments.Get(1).([]event.Event) {
			types = append(types, evt.Type())
		}
	}
	return types
}
