// Package avatar keeps the display name to photo map of all known accounts
// for as long as at least one consumer needs it.
package avatar

import (
	"context"
	"maps"
	"sync"

	"github.com/nickdesi/scba-benevolat/internal/models"
	"go.uber.org/zap"
)

type Source interface {
	SubscribeUsers(ctx context.Context) (<-chan []models.User, error)
}

type Cache struct {
	source Source
	logger *zap.Logger

	mu         sync.Mutex
	consumers  map[*Consumer]struct{}
	avatars    map[string]string
	cancel     context.CancelFunc
	generation int
}

func NewCache(source Source, logger *zap.Logger) *Cache {
	return &Cache{
		source:    source,
		logger:    logger.Named("avatar"),
		consumers: map[*Consumer]struct{}{},
		avatars:   map[string]string{},
	}
}

// Consumer is one registered user of the cache.
type Consumer struct {
	cache   *Cache
	updates chan map[string]string
	once    sync.Once
}

// Register adds a consumer. The first consumer starts the user subscription.
func (c *Cache) Register() (*Consumer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.consumers) == 0 {
		ctx, cancel := context.WithCancel(context.Background())
		ch, err := c.source.SubscribeUsers(ctx)
		if err != nil {
			cancel()
			return nil, err
		}
		c.cancel = cancel
		c.generation++
		go c.pump(ch, c.generation)
		c.logger.Debug("avatar subscription started")
	}

	consumer := &Consumer{cache: c, updates: make(chan map[string]string, 1)}
	c.consumers[consumer] = struct{}{}
	return consumer, nil
}

// Active reports whether the user subscription is running.
func (c *Cache) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Cache) pump(ch <-chan []models.User, generation int) {
	for users := range ch {
		next := make(map[string]string, len(users))
		for _, u := range users {
			if name := u.Name(); name != "" && u.AvatarURL != "" {
				next[name] = u.AvatarURL
			}
		}

		c.mu.Lock()
		if generation != c.generation || c.cancel == nil {
			c.mu.Unlock()
			return
		}
		c.avatars = next
		for consumer := range c.consumers {
			consumer.offer(maps.Clone(next))
		}
		c.mu.Unlock()
	}
}

func (c *Cache) unregister(consumer *Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.consumers, consumer)
	close(consumer.updates)
	if len(c.consumers) == 0 && c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.avatars = map[string]string{}
		c.logger.Debug("avatar subscription stopped")
	}
}

// Get returns the photo URL registered for a display name.
func (cs *Consumer) Get(name string) string {
	cs.cache.mu.Lock()
	defer cs.cache.mu.Unlock()
	return cs.cache.avatars[name]
}

// All returns a copy of the current map.
func (cs *Consumer) All() map[string]string {
	cs.cache.mu.Lock()
	defer cs.cache.mu.Unlock()
	return maps.Clone(cs.cache.avatars)
}

// Updates delivers the full map after every change. Only the latest map is
// kept for a consumer that falls behind. The channel is closed by Close.
func (cs *Consumer) Updates() <-chan map[string]string {
	return cs.updates
}

func (cs *Consumer) Close() {
	cs.once.Do(func() {
		cs.cache.unregister(cs)
	})
}

// offer must be called with the cache lock held.
func (cs *Consumer) offer(m map[string]string) {
	select {
	case cs.updates <- m:
		return
	default:
	}
	select {
	case <-cs.updates:
	default:
	}
	select {
	case cs.updates <- m:
	default:
	}
}
