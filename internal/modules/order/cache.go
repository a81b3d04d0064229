package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// cachedRepo is a read-through cache in front of the order repository.
// Every mutating call invalidates the cached order so a stale total can
// never be served after an item change.
type cachedRepo struct {
	primary Repository
	client  *redis.Client
	ttl     time.Duration
}

// NewCachedRepository wraps a repository with a Redis read-through cache.
func NewCachedRepository(primary Repository, client *redis.Client, ttl time.Duration) Repository {
	return &cachedRepo{primary: primary, client: client, ttl: ttl}
}

func cacheKey(venueID, orderID string) string {
	return "order:" + venueID + ":" + orderID
}

func (r *cachedRepo) GetByID(ctx context.Context, venueID, orderID string) (*Order, error) {
	key := cacheKey(venueID, orderID)
	if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var o Order
		if err := json.Unmarshal(cached, &o); err == nil {
			return &o, nil
		}
	}

	o, err := r.primary.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(o); err == nil {
		r.client.Set(ctx, key, data, r.ttl)
	}
	return o, nil
}

func (r *cachedRepo) Create(ctx context.Context, o *Order) error {
	return r.primary.Create(ctx, o)
}

func (r *cachedRepo) ListOpen(ctx context.Context, venueID string) ([]*Order, error) {
	return r.primary.ListOpen(ctx, venueID)
}

func (r *cachedRepo) Update(ctx context.Context, o *Order) error {
	defer r.invalidate(ctx, o)
	return r.primary.Update(ctx, o)
}

func (r *cachedRepo) AddItem(ctx context.Context, o *Order, item *OrderItem) error {
	defer r.invalidate(ctx, o)
	return r.primary.AddItem(ctx, o, item)
}

func (r *cachedRepo) UpdateItem(ctx context.Context, o *Order, item *OrderItem) error {
	defer r.invalidate(ctx, o)
	return r.primary.UpdateItem(ctx, o, item)
}

func (r *cachedRepo) RemoveItem(ctx context.Context, o *Order, itemID string) error {
	defer r.invalidate(ctx, o)
	return r.primary.RemoveItem(ctx, o, itemID)
}

func (r *cachedRepo) MarkItemsSent(ctx context.Context, o *Order) error {
	defer r.invalidate(ctx, o)
	return r.primary.MarkItemsSent(ctx, o)
}

func (r *cachedRepo) invalidate(ctx context.Context, o *Order) {
	r.client.Del(ctx, cacheKey(o.VenueID.String(), o.ID.String()))
}
