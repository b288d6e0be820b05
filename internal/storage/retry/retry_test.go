package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/mocks"
	"github.com/Shaydu/cache-raiders-sub000/internal/model"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
	"github.com/Shaydu/cache-raiders-sub000/internal/testutil"
)

// flakyStorage fails calls with the configured error until failCount
// failures have been served, then succeeds. The embedded interface is
// nil; only the methods the tests exercise are implemented.
type flakyStorage struct {
	storage.Storage

	failErr   error
	failCount int
	calls     int
	readCalls int
}

func (f *flakyStorage) CreateObject(ctx context.Context, obj *model.Object) error {
	f.calls++
	if f.failCount > 0 {
		f.failCount--
		return f.failErr
	}
	return nil
}

func (f *flakyStorage) GetObject(ctx context.Context, id model.ObjectID) (*model.Object, error) {
	f.readCalls++
	return nil, f.failErr
}

func (f *flakyStorage) AppendFind(ctx context.Context, find *model.Find) (*model.Find, error) {
	f.calls++
	if f.failCount > 0 {
		f.failCount--
		return nil, f.failErr
	}
	stored := *find
	stored.ID = 1
	return &stored, nil
}

type RetrySuite struct {
	suite.Suite
	ctx context.Context
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}

func (s *RetrySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *RetrySuite) newStorage(inner storage.Storage) *Storage {
	store := New(inner, mocks.NewMockRandom(), testutil.NopLogger())
	store.baseDelay = time.Millisecond
	return store
}

func (s *RetrySuite) TestBusyWriteEventuallySucceeds() {
	inner := &flakyStorage{failErr: model.ErrStorageBusy, failCount: 2}
	store := s.newStorage(inner)

	err := store.CreateObject(s.ctx, &model.Object{ID: "obj-1"})

	s.NoError(err)
	s.Equal(3, inner.calls)
}

func (s *RetrySuite) TestBusyWriteExhaustsAttempts() {
	inner := &flakyStorage{failErr: model.ErrStorageBusy, failCount: 10}
	store := s.newStorage(inner)

	err := store.CreateObject(s.ctx, &model.Object{ID: "obj-1"})

	s.ErrorIs(err, model.ErrStorageBusy)
	s.Equal(DefaultMaxAttempts, inner.calls)
}

func (s *RetrySuite) TestNonBusyErrorPassesThrough() {
	inner := &flakyStorage{failErr: model.ErrObjectExists, failCount: 10}
	store := s.newStorage(inner)

	err := store.CreateObject(s.ctx, &model.Object{ID: "obj-1"})

	s.ErrorIs(err, model.ErrObjectExists)
	s.Equal(1, inner.calls)
}

func (s *RetrySuite) TestReadsAreNotRetried() {
	inner := &flakyStorage{failErr: model.ErrStorageBusy}
	store := s.newStorage(inner)

	_, err := store.GetObject(s.ctx, "obj-1")

	s.ErrorIs(err, model.ErrStorageBusy)
	s.Equal(1, inner.readCalls)
}

func (s *RetrySuite) TestAppendFindReturnsStoredValue() {
	inner := &flakyStorage{failErr: model.ErrStorageBusy, failCount: 1}
	store := s.newStorage(inner)

	stored, err := store.AppendFind(s.ctx, &model.Find{ObjectID: "obj-1", FoundBy: "device-1"})

	s.Require().NoError(err)
	s.Equal(int64(1), stored.ID)
	s.Equal(2, inner.calls)
}

func (s *RetrySuite) TestCancelledContextStopsRetry() {
	inner := &flakyStorage{failErr: model.ErrStorageBusy, failCount: 10}
	store := s.newStorage(inner)
	store.baseDelay = time.Second

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := store.CreateObject(ctx, &model.Object{ID: "obj-1"})

	s.ErrorIs(err, model.ErrStorageBusy)
	s.Contains(err.Error(), context.Canceled.Error())
	s.Equal(1, inner.calls)
}
