package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/access-management/internal/core/events"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds resolved menu trees per (tenant, user). Entries expire on TTL
// and are evicted eagerly for a whole tenant whenever any activation, grant
// or assignment changes there, so a hit can never serve state older than the
// last change the bus saw.
type Cache struct {
	lru *expirable.LRU[string, *MenuTree]
}

func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, *MenuTree](maxEntries, nil, ttl),
	}
}

func cacheKey(tenantID string, userID int64) string {
	return fmt.Sprintf("%s/%d", tenantID, userID)
}

// Get returns the cached tree for the pair, if any. Cached trees are shared
// and must be treated as immutable by callers.
func (c *Cache) Get(tenantID string, userID int64) (*MenuTree, bool) {
	return c.lru.Get(cacheKey(tenantID, userID))
}

func (c *Cache) Add(tenantID string, userID int64, tree *MenuTree) {
	c.lru.Add(cacheKey(tenantID, userID), tree)
}

// InvalidateTenant drops every cached tree belonging to the tenant. A grant
// or activation change affects an unknown set of users, so the whole tenant
// goes.
func (c *Cache) InvalidateTenant(tenantID string) {
	prefix := tenantID + "/"
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

// Subscribe wires the cache to the change events the write paths publish.
func (c *Cache) Subscribe(bus *events.EventBus) {
	handler := func(ctx context.Context, event events.Event) error {
		if scoped, ok := event.(events.TenantScoped); ok {
			c.InvalidateTenant(scoped.ScopedTenantID())
		}
		return nil
	}
	bus.Subscribe(events.EventTypeActivationChanged, handler)
	bus.Subscribe(events.EventTypeGrantsChanged, handler)
	bus.Subscribe(events.EventTypeAssignmentsChanged, handler)
}
