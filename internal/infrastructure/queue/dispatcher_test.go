package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	block  chan struct{}
	err    error
}

func (r *recordingRepo) InsertAuthEvent(_ context.Context, e *domain.AuthEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *recordingRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func TestDispatcher_PersistsInOrderPerEmail(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start(context.Background())

	kinds := []domain.AuthEventKind{
		domain.AuthEventRegister,
		domain.AuthEventLoginFailure,
		domain.AuthEventLoginSuccess,
	}
	for _, k := range kinds {
		require.True(t, d.Enqueue(domain.AuthEvent{Kind: k, Email: "alice@x.com", OccurredAt: time.Now()}))
	}
	require.True(t, d.Enqueue(domain.AuthEvent{Kind: domain.AuthEventRegister, Email: "bob@x.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	var alice []domain.AuthEventKind
	for _, e := range repo.snapshot() {
		if e.Email == "alice@x.com" {
			alice = append(alice, e.Kind)
		}
	}
	assert.Equal(t, kinds, alice)
	assert.Len(t, repo.snapshot(), 4)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	accepted := 0
	for i := 0; i < channelBuffer+10; i++ {
		if d.Enqueue(domain.AuthEvent{Kind: domain.AuthEventLoginFailure, Email: "x@x.com"}) {
			accepted++
		}
	}
	assert.Less(t, accepted, channelBuffer+10)
	assert.GreaterOrEqual(t, accepted, channelBuffer)

	close(repo.block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	assert.Len(t, repo.snapshot(), accepted)
}

func TestDispatcher_RejectsAfterShutdown(t *testing.T) {
	d := NewDispatcher(2, &recordingRepo{}, zerolog.Nop())
	d.Start(context.Background())
	require.NoError(t, d.Shutdown(context.Background()))
	require.NoError(t, d.Shutdown(context.Background()))

	assert.False(t, d.Enqueue(domain.AuthEvent{Kind: domain.AuthEventRegister, Email: "a@x.com"}))
}

func TestDispatcher_StoreErrorsDoNotStopWorkers(t *testing.T) {
	repo := &recordingRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	assert.True(t, d.Enqueue(domain.AuthEvent{Kind: domain.AuthEventRegister, Email: "a@x.com"}))
	assert.True(t, d.Enqueue(domain.AuthEvent{Kind: domain.AuthEventRegister, Email: "a@x.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	assert.Empty(t, repo.snapshot())
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())
	first := d.shardIndex("alice@x.com")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("alice@x.com"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}
