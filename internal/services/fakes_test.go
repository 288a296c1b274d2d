package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tailor-app/internal/models"
	"tailor-app/internal/utils"
)

type fakeRepo struct {
	mu        sync.Mutex
	orders    []models.Order
	now       time.Time
	pageCalls int
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (r *fakeRepo) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.now = r.now.Add(time.Minute)
	order.ID = primitive.NewObjectID()
	order.CreatedAt = r.now
	order.UpdatedAt = r.now
	r.orders = append(r.orders, *order)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeRepo) matching(f models.OrderFilter) []models.Order {
	var out []models.Order
	for _, o := range r.orders {
		if f.Shop != "" && !strings.Contains(strings.ToLower(o.ShopName), strings.ToLower(f.Shop)) {
			continue
		}
		if f.Category != "" && o.Category != f.Category {
			continue
		}
		subs := f.SubcategoryAny
		if len(subs) == 0 && f.Subcategory != "" {
			subs = []string{f.Subcategory}
		}
		if len(subs) > 0 && !contains(subs, o.Subcategory) {
			continue
		}
		if f.StartDate != nil && f.EndDate != nil && (o.CreatedAt.Before(*f.StartDate) || o.CreatedAt.After(*f.EndDate)) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeRepo) FindPage(_ context.Context, f models.OrderFilter, page, limit int64) ([]models.OrderSummary, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageCalls++
	all := r.matching(f)
	items := []models.OrderSummary{}
	for i := (page - 1) * limit; i < int64(len(all)) && i < page*limit; i++ {
		o := all[i]
		items = append(items, models.OrderSummary{
			ID: o.ID, ShopName: o.ShopName, ClientName: o.ClientName, ClientNumber: o.ClientNumber,
			Category: o.Category, Subcategory: o.Subcategory, CreatedAt: o.CreatedAt,
		})
	}
	return items, int64(len(all)), nil
}

func (r *fakeRepo) FindAll(_ context.Context, f models.OrderFilter, max int64) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching(f)
	if max > 0 && int64(len(all)) > max {
		all = all[:max]
	}
	return all, nil
}

func (r *fakeRepo) EnsureIndexes(context.Context) error { return nil }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// fakeCache mimics utils.RedisClient by storing JSON, ignoring expirations.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return utils.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	_, exists := c.data[key]
	c.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, c.Set(ctx, key, value, ttl)
}

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if raw, ok := c.data[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	n++
	c.data[key], _ = json.Marshal(n)
	return n, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

// brokenCache fails the operations selected by its fields and otherwise
// behaves like fakeCache.
type brokenCache struct {
	*fakeCache
	failSetPrefix string
	failExists    bool
}

func (c *brokenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.failSetPrefix != "" && strings.HasPrefix(key, c.failSetPrefix) {
		return errors.New("redis: connection refused")
	}
	return c.fakeCache.Set(ctx, key, value, ttl)
}

func (c *brokenCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.failExists {
		return false, errors.New("redis: connection refused")
	}
	return c.fakeCache.Exists(ctx, key)
}
