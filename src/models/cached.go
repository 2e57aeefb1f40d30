package models

import (
	"context"
	"time"

	"github.com/hivegate/hive-agent/src/cache"
)

// CachedModel fronts a Model with an LRU response cache. Only completions
// that carry no tool calls are cached: a tool call must reach the executor
// every time, and its result depends on live metastore state anyway.
type CachedModel struct {
	inner Model
	cache *cache.LRUCache
}

func NewCachedModel(inner Model, size int, ttl time.Duration) *CachedModel {
	return &CachedModel{
		inner: inner,
		cache: cache.NewLRUCache(size, ttl),
	}
}

func (c *CachedModel) Name() string { return c.inner.Name() }

func (c *CachedModel) Chat(ctx context.Context, req Request) (Completion, error) {
	key := cache.HashKey(renderPrompt(req))
	if val, ok := c.cache.Get(key); ok {
		if comp, ok := val.(Completion); ok {
			return comp, nil
		}
	}

	comp, err := c.inner.Chat(ctx, req)
	if err != nil {
		return Completion{}, err
	}
	if len(comp.ToolCalls) == 0 {
		c.cache.Set(key, comp)
	}
	return comp, nil
}
