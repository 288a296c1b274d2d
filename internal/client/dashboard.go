package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"tailor-app/internal/models"
	"tailor-app/internal/taxonomy"
)

// DashboardPageSize is fixed; the admin table has no page-size control.
const DashboardPageSize = 10

// OrderLister is the part of the API the dashboard needs.
type OrderLister interface {
	ListOrders(ctx context.Context, query models.OrderQuery) (*models.OrderPage, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// Dashboard drives the admin order table: filters, a page cursor and the
// last page fetched. Every change re-queries. Responses that arrive after a
// newer request was issued are dropped.
type Dashboard struct {
	api OrderLister
	tx  *taxonomy.Taxonomy

	mu          sync.Mutex
	shop        string
	category    string
	subcategory string
	startDate   *time.Time
	endDate     *time.Time
	page        int64

	orders []models.OrderSummary
	total  int64
	err    error

	issued  uint64
	applied uint64
}

func NewDashboard(api OrderLister, tx *taxonomy.Taxonomy) *Dashboard {
	return &Dashboard{api: api, tx: tx, page: 1}
}

// SetShop filters by shop name substring and goes back to page 1.
func (d *Dashboard) SetShop(ctx context.Context, shop string) error {
	d.mu.Lock()
	d.shop = strings.TrimSpace(shop)
	d.page = 1
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// SetCategory filters by category id ("" or "all" for every category). The
// subcategory filter is reset.
func (d *Dashboard) SetCategory(ctx context.Context, id string) error {
	id = normalizeOption(id)
	if id != "" && d.tx != nil {
		if _, err := d.tx.Category(id); err != nil {
			return err
		}
	}
	d.mu.Lock()
	d.category = id
	d.subcategory = ""
	d.page = 1
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// SetSubcategory filters by subcategory id within the selected category.
func (d *Dashboard) SetSubcategory(ctx context.Context, id string) error {
	id = normalizeOption(id)
	d.mu.Lock()
	category := d.category
	d.mu.Unlock()

	if id != "" {
		if category == "" {
			return ErrNoCategory
		}
		if d.tx != nil {
			if _, err := d.tx.Subcategory(category, id); err != nil {
				return err
			}
		}
	}

	d.mu.Lock()
	d.subcategory = id
	d.page = 1
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// SetDates sets the created-at range as yyyy-MM-dd strings; empty clears a bound.
// The range only applies when both bounds are set.
func (d *Dashboard) SetDates(ctx context.Context, start, end string) error {
	startDate, err := parseOptionalDate(start)
	if err != nil {
		return err
	}
	endDate, err := parseOptionalDate(end)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.startDate = startDate
	d.endDate = endDate
	d.page = 1
	d.mu.Unlock()
	return d.Refresh(ctx)
}

func (d *Dashboard) ClearFilters(ctx context.Context) error {
	d.mu.Lock()
	d.shop, d.category, d.subcategory = "", "", ""
	d.startDate, d.endDate = nil, nil
	d.page = 1
	d.mu.Unlock()
	return d.Refresh(ctx)
}

func (d *Dashboard) Next(ctx context.Context) error {
	d.mu.Lock()
	if d.page >= d.totalPagesLocked() {
		d.mu.Unlock()
		return nil
	}
	d.page++
	d.mu.Unlock()
	return d.Refresh(ctx)
}

func (d *Dashboard) Prev(ctx context.Context) error {
	d.mu.Lock()
	if d.page <= 1 {
		d.mu.Unlock()
		return nil
	}
	d.page--
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// Refresh re-issues the current query. A stale response is discarded and
// reported as success; the newer request owns the state.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.issued++
	seq := d.issued
	query := d.queryLocked()
	d.mu.Unlock()

	result, err := d.api.ListOrders(ctx, query)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.issued || seq < d.applied {
		return nil
	}
	d.applied = seq
	d.err = err
	if err != nil {
		return err
	}
	d.orders = result.Items
	d.total = result.Total
	return nil
}

// Open fetches the full order, measurements included.
func (d *Dashboard) Open(ctx context.Context, id string) (*models.Order, error) {
	return d.api.GetOrder(ctx, id)
}

// Query is the request the dashboard would issue now.
func (d *Dashboard) Query() models.OrderQuery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queryLocked()
}

func (d *Dashboard) queryLocked() models.OrderQuery {
	return models.OrderQuery{
		Filter: models.OrderFilter{
			Shop:        d.shop,
			Category:    d.category,
			Subcategory: d.subcategory,
			StartDate:   d.startDate,
			EndDate:     d.endDate,
		},
		Page:  d.page,
		Limit: DashboardPageSize,
	}
}

func (d *Dashboard) Orders() []models.OrderSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.OrderSummary(nil), d.orders...)
}

func (d *Dashboard) Page() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

func (d *Dashboard) Total() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// TotalPages is ceil(total/pageSize), never less than 1.
func (d *Dashboard) TotalPages() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalPagesLocked()
}

func (d *Dashboard) totalPagesLocked() int64 {
	pages := (d.total + DashboardPageSize - 1) / DashboardPageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func (d *Dashboard) HasPrev() bool {
	return d.Page() > 1
}

func (d *Dashboard) HasNext() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page < d.totalPagesLocked()
}

// Err is the error of the last applied fetch.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func normalizeOption(v string) string {
	v = strings.TrimSpace(v)
	if v == "all" {
		return ""
	}
	return v
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
