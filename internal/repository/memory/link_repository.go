package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
)

// entry guards a single link. Only clicks change after insertion.
type entry struct {
	mu   sync.RWMutex
	seq  uint64
	link *domain.Link
}

// linkRepository keeps links in process memory
// There is no store-wide lock: sync.Map gives atomic insert-if-absent per code,
// and each entry serializes appends to its own click history.
type linkRepository struct {
	links sync.Map // map[code]*entry
	seq   atomic.Uint64
}

// NewLinkRepository creates an empty in-memory repository
func NewLinkRepository() repository.LinkRepository {
	return &linkRepository{}
}

// Insert stores a copy of link unless the code is already taken
func (r *linkRepository) Insert(_ context.Context, link *domain.Link) error {
	e := &entry{
		seq:  r.seq.Add(1),
		link: link.Clone(),
	}

	if _, loaded := r.links.LoadOrStore(link.Code, e); loaded {
		return domain.ErrCodeCollision
	}

	return nil
}

// Get returns a snapshot of the link
func (r *linkRepository) Get(_ context.Context, code string) (*domain.Link, error) {
	e, ok := r.load(code)
	if !ok {
		return nil, domain.ErrNotFound
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.link.Clone(), nil
}

// AppendClick appends click under the entry's write lock
func (r *linkRepository) AppendClick(_ context.Context, code string, click domain.ClickEvent) error {
	e, ok := r.load(code)
	if !ok {
		return domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.link.Clicks = append(e.link.Clicks, click)
	return nil
}

// List returns all links ordered by insertion
func (r *linkRepository) List(_ context.Context) ([]*domain.Link, error) {
	var entries []*entry
	r.links.Range(func(_, value any) bool {
		entries = append(entries, value.(*entry))
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	links := make([]*domain.Link, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		links = append(links, e.link.Clone())
		e.mu.RUnlock()
	}

	return links, nil
}

func (r *linkRepository) load(code string) (*entry, bool) {
	v, ok := r.links.Load(code)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}
