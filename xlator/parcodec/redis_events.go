package parcodec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultEventChannel = "huffpar:events"
	DefaultRedisTimeout = 2 * time.Second
	DefaultEventBuffer  = 1024
)

// publisher is the part of a redis client RedisListener needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisListener publishes every event as JSON on a redis channel, so other processes can
// follow a long run. Events are queued and sent by a single goroutine; when the queue is
// full they are dropped and counted rather than slowing the workers down. Publishing
// failures are logged and otherwise ignored.
type RedisListener struct {
	client  publisher
	closer  func() error
	channel string
	timeout time.Duration
	runID   string

	mu      sync.RWMutex
	closed  bool
	events  chan []byte
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	dropped atomic.Int64
}

// NewRedisListener connects to addr, given as host:port[/db]. A comma separated host list
// selects cluster mode; a leading name without a port selects sentinel mode with that master.
func NewRedisListener(addr, channel, runID string) (*RedisListener, error) {
	rdb, err := newUniversalRedisClient(addr)
	if err != nil {
		return nil, err
	}
	return newRedisListener(rdb, rdb.Close, channel, runID, DefaultEventBuffer), nil
}

func newRedisListener(client publisher, closer func() error, channel, runID string, buffer int) *RedisListener {
	if channel == "" {
		channel = DefaultEventChannel
	}
	r := &RedisListener{
		client:  client,
		closer:  closer,
		channel: channel,
		timeout: DefaultRedisTimeout,
		runID:   runID,
		events:  make(chan []byte, buffer),
		done:    make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	go r.publish()
	return r
}

type redisEvent struct {
	Run string `json:"run,omitempty"`
	*Event
}

// ProcessEvent never blocks on redis. Events arriving after Close are ignored.
func (r *RedisListener) ProcessEvent(evt *Event) {
	payload, err := json.Marshal(redisEvent{Run: r.runID, Event: evt})
	if err != nil {
		logger.Warnf("failed to encode event %s: %v", evt, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.events <- payload:
	default:
		r.dropped.Add(1)
	}
}

func (r *RedisListener) publish() {
	defer close(r.done)
	for payload := range r.events {
		ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
		if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
			logger.Warnf("failed to publish event to %s: %v", r.channel, err)
		}
		cancel()
	}
}

// Dropped is the number of events discarded because the queue was full.
func (r *RedisListener) Dropped() int64 {
	return r.dropped.Load()
}

// Close sends the events still queued, giving up on them after one publish timeout, then
// closes the redis client.
func (r *RedisListener) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()

	flush := time.NewTimer(r.timeout)
	select {
	case <-r.done:
	case <-flush.C:
		r.cancel()
		<-r.done
	}
	flush.Stop()
	r.cancel()
	if n := r.dropped.Load(); n > 0 {
		logger.Warnf("%d events were dropped, redis could not keep up", n)
	}
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

func newUniversalRedisClient(addr string) (redis.UniversalClient, error) {
	u, err := url.Parse("redis://" + addr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis address format: %w", err)
	}
	db := 0
	if p := strings.Trim(u.Path, "/"); p != "" {
		if db, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("invalid redis database %q: %w", p, err)
		}
	}
	password, _ := u.User.Password()
	if password == "" {
		password = os.Getenv("REDIS_PASSWORD")
	}

	universalOptions := &redis.UniversalOptions{
		Addrs:        strings.Split(u.Host, ","),
		DB:           db,
		Password:     password,
		MaxRetries:   -1,
		PoolSize:     4,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}

	hosts := strings.Split(u.Host, ",")
	if len(hosts) > 1 && !strings.Contains(hosts[0], ":") {
		universalOptions.MasterName = hosts[0]
		universalOptions.Addrs = hosts[1:]
		logger.Debugf("Publishing events via Redis Sentinel. Master: %s, Sentinels: %v", universalOptions.MasterName, universalOptions.Addrs)
	} else if len(hosts) > 1 {
		logger.Debugf("Publishing events via Redis Cluster. Nodes: %v", universalOptions.Addrs)
	} else {
		logger.Debugf("Publishing events via Redis at %s", universalOptions.Addrs[0])
	}

	rdb := redis.NewUniversalClient(universalOptions)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
