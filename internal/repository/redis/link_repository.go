package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"

	"github.com/redis/go-redis/v9"
)

const backend = "redis"

// Key layout, relative to the repository prefix:
//
//	link:{code}    JSON link record, written once with SETNX
//	clicks:{code}  list of JSON click events, RPUSH only
//	links          list of codes in insertion order
//
// Keys carry no TTL; expiry is checked by the service, not by Redis.

// insertScript sets the link and indexes it in one atomic step
var insertScript = redis.NewScript(`
	if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
		return 0
	end
	redis.call('RPUSH', KEYS[2], ARGV[2])
	return 1
`)

// appendScript pushes a click only if the link exists
var appendScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return 0
	end
	redis.call('RPUSH', KEYS[2], ARGV[1])
	return 1
`)

// storedLink is the persisted form of a link; clicks live in their own list
type storedLink struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"long_url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// linkRepository stores links in Redis
type linkRepository struct {
	client *redis.Client
	prefix string
}

// NewLinkRepository creates a Redis-backed repository
// prefix namespaces every key, e.g. "shortlink:".
func NewLinkRepository(client *redis.Client, prefix string) repository.LinkRepository {
	return &linkRepository{
		client: client,
		prefix: prefix,
	}
}

// Insert stores the link unless the code is already taken
func (r *linkRepository) Insert(ctx context.Context, link *domain.Link) error {
	defer observe("insert", time.Now())

	data, err := json.Marshal(storedLink{
		Code:      link.Code,
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	inserted, err := insertScript.Run(
		ctx,
		r.client,
		[]string{r.linkKey(link.Code), r.indexKey()},
		data,
		link.Code,
	).Int()
	if err != nil {
		metrics.RecordStoreError(backend, "insert")
		return fmt.Errorf("redis insert error: %w", err)
	}

	if inserted == 0 {
		return domain.ErrCodeCollision
	}

	return nil
}

// Get returns the link with its click history
func (r *linkRepository) Get(ctx context.Context, code string) (*domain.Link, error) {
	defer observe("get", time.Now())

	var (
		linkCmd   *redis.StringCmd
		clicksCmd *redis.StringSliceCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		linkCmd = pipe.Get(ctx, r.linkKey(code))
		clicksCmd = pipe.LRange(ctx, r.clicksKey(code), 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordStoreError(backend, "get")
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	link, err := decodeLink(linkCmd, clicksCmd)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.RecordStoreError(backend, "get")
		}
		return nil, err
	}

	return link, nil
}

// AppendClick pushes click onto the link's click list
func (r *linkRepository) AppendClick(ctx context.Context, code string, click domain.ClickEvent) error {
	defer observe("append_click", time.Now())

	data, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("failed to marshal click: %w", err)
	}

	appended, err := appendScript.Run(
		ctx,
		r.client,
		[]string{r.linkKey(code), r.clicksKey(code)},
		data,
	).Int()
	if err != nil {
		metrics.RecordStoreError(backend, "append_click")
		return fmt.Errorf("redis append error: %w", err)
	}

	if appended == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List reads the insertion index, then fetches every link in one pipeline
func (r *linkRepository) List(ctx context.Context) ([]*domain.Link, error) {
	defer observe("list", time.Now())

	codes, err := r.client.LRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		metrics.RecordStoreError(backend, "list")
		return nil, fmt.Errorf("redis list error: %w", err)
	}

	if len(codes) == 0 {
		return []*domain.Link{}, nil
	}

	linkCmds := make([]*redis.StringCmd, len(codes))
	clickCmds := make([]*redis.StringSliceCmd, len(codes))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range codes {
			linkCmds[i] = pipe.Get(ctx, r.linkKey(code))
			clickCmds[i] = pipe.LRange(ctx, r.clicksKey(code), 0, -1)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordStoreError(backend, "list")
		return nil, fmt.Errorf("redis list error: %w", err)
	}

	links := make([]*domain.Link, 0, len(codes))
	for i := range codes {
		link, err := decodeLink(linkCmds[i], clickCmds[i])
		if err != nil {
			metrics.RecordStoreError(backend, "list")
			return nil, err
		}
		links = append(links, link)
	}

	return links, nil
}

func decodeLink(linkCmd *redis.StringCmd, clicksCmd *redis.StringSliceCmd) (*domain.Link, error) {
	data, err := linkCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var stored storedLink
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}

	rawClicks, err := clicksCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis lrange error: %w", err)
	}

	clicks := make([]domain.ClickEvent, 0, len(rawClicks))
	for _, raw := range rawClicks {
		var click domain.ClickEvent
		if err := json.Unmarshal([]byte(raw), &click); err != nil {
			return nil, fmt.Errorf("failed to unmarshal click: %w", err)
		}
		clicks = append(clicks, click)
	}

	return &domain.Link{
		Code:      stored.Code,
		LongURL:   stored.LongURL,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
		Clicks:    clicks,
	}, nil
}

func (r *linkRepository) linkKey(code string) string   { return r.prefix + "link:" + code }
func (r *linkRepository) clicksKey(code string) string { return r.prefix + "clicks:" + code }
func (r *linkRepository) indexKey() string             { return r.prefix + "links" }

func observe(operation string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// InitRedis creates a new Redis client
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Connection pool settings
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
