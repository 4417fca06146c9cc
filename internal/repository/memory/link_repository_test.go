package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shortlink/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(code string) *domain.Link {
	return domain.NewLink(code, "https://example.com/"+code, time.Now(), time.Minute)
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()

	require.NoError(t, repo.Insert(ctx, newLink("abc")))

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Code)
	assert.Equal(t, "https://example.com/abc", got.LongURL)
	assert.Empty(t, got.Clicks)
}

func TestGet_Unknown(t *testing.T) {
	repo := NewLinkRepository()

	got, err := repo.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, got)
}

func TestInsert_Collision(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()

	require.NoError(t, repo.Insert(ctx, newLink("abc")))
	err := repo.Insert(ctx, domain.NewLink("abc", "https://other.example.com", time.Now(), time.Hour))

	assert.ErrorIs(t, err, domain.ErrCodeCollision)
	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/abc", got.LongURL, "original record must be untouched")
}

func TestInsert_CodesAreCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()

	require.NoError(t, repo.Insert(ctx, newLink("abc")))
	assert.NoError(t, repo.Insert(ctx, newLink("ABC")))
}

func TestAppendClick(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()
	require.NoError(t, repo.Insert(ctx, newLink("abc")))

	base := time.Now()
	for i := 0; i < 3; i++ {
		click := domain.NewClickEvent(base.Add(time.Duration(i)*time.Second), fmt.Sprintf("ref-%d", i), "IN")
		require.NoError(t, repo.AppendClick(ctx, "abc", click))
	}

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, got.Clicks, 3)
	for i, c := range got.Clicks {
		assert.Equal(t, fmt.Sprintf("ref-%d", i), c.Source)
	}
}

func TestAppendClick_Unknown(t *testing.T) {
	repo := NewLinkRepository()

	err := repo.AppendClick(context.Background(), "nope", domain.NewClickEvent(time.Now(), "", "IN"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()
	link := newLink("abc")
	require.NoError(t, repo.Insert(ctx, link))

	// mutating the inserted value or a returned snapshot leaves the store alone
	link.LongURL = "https://tampered.example.com"
	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	got.Clicks = append(got.Clicks, domain.NewClickEvent(time.Now(), "", "IN"))

	again, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/abc", again.LongURL)
	assert.Empty(t, again.Clicks)
}

func TestList_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()

	codes := []string{"zeta", "alpha", "mid", "beta", "omega"}
	for _, code := range codes {
		require.NoError(t, repo.Insert(ctx, newLink(code)))
	}
	require.NoError(t, repo.AppendClick(ctx, "mid", domain.NewClickEvent(time.Now(), "", "IN")))

	links, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, len(codes))
	for i, code := range codes {
		assert.Equal(t, code, links[i].Code)
	}
	assert.Len(t, links[2].Clicks, 1)
}

func TestList_Empty(t *testing.T) {
	links, err := NewLinkRepository().List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, links)
}

// ==================== CONCURRENCY ====================

func TestConcurrentInsert_SameCodeExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()

	const workers = 64
	var (
		wg         sync.WaitGroup
		successes  atomic.Int32
		collisions atomic.Int32
		start      = make(chan struct{})
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := repo.Insert(ctx, domain.NewLink("race", fmt.Sprintf("https://example.com/%d", i), time.Now(), time.Minute))
			switch {
			case err == nil:
				successes.Add(1)
			case domain.IsCollision(err):
				collisions.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), collisions.Load())
}

func TestConcurrentAppendClick_NoLostEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository()
	require.NoError(t, repo.Insert(ctx, newLink("hot")))
	require.NoError(t, repo.Insert(ctx, newLink("cold")))

	const workers, perWorker = 16, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				assert.NoError(t, repo.AppendClick(ctx, "hot", domain.NewClickEvent(time.Now(), "", "IN")))
				_, err := repo.List(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	hot, err := repo.Get(ctx, "hot")
	require.NoError(t, err)
	assert.Len(t, hot.Clicks, workers*perWorker)

	cold, err := repo.Get(ctx, "cold")
	require.NoError(t, err)
	assert.Empty(t, cold.Clicks)
}
