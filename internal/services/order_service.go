package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"tailor-app/internal/models"
	"tailor-app/internal/repository"
	"tailor-app/internal/taxonomy"
	"tailor-app/internal/utils"
)

type OrderService interface {
	// CreateOrder persists a draft. replayed is true when idempotencyKey matched an
	// earlier submission of the same draft; the returned order then carries only its id.
	CreateOrder(ctx context.Context, draft *models.OrderDraft, idempotencyKey string) (order *models.Order, replayed bool, err error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, query models.OrderQuery) (*models.OrderPage, error)
	ExportOrders(ctx context.Context, filter models.OrderFilter) ([]byte, int, error)
}

type orderService struct {
	repo     repository.OrderRepository
	taxonomy *taxonomy.Taxonomy
	cache    Cache
	logger   *zap.Logger
}

// NewOrderService wires the store, the shared taxonomy and an optional cache (nil disables it).
func NewOrderService(repo repository.OrderRepository, tx *taxonomy.Taxonomy, cache Cache, logger *zap.Logger) OrderService {
	return &orderService{repo: repo, taxonomy: tx, cache: cache, logger: logger}
}

func (s *orderService) CreateOrder(ctx context.Context, draft *models.OrderDraft, idempotencyKey string) (*models.Order, bool, error) {
	if draft.MissingRequired() {
		return nil, false, models.ErrMissingFields
	}
	if err := s.validateDraft(draft); err != nil {
		return nil, false, err
	}

	var record *idempotencyRecord
	if idempotencyKey != "" && s.cache != nil {
		existing, reserved, err := s.reserveIdempotencyKey(ctx, idempotencyKey, draft)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
		record = reserved
	}

	order := draft.ToOrder()
	if err := s.repo.Create(ctx, order); err != nil {
		if record != nil {
			s.cacheDelete(ctx, keyIdemPrefix+idempotencyKey)
		}
		return nil, false, err
	}

	if record != nil {
		record.OrderID = order.ID.Hex()
		if err := s.cache.Set(ctx, keyIdemPrefix+idempotencyKey, record, idempotencyTTL); err != nil {
			// A reservation left pending would answer every retry with a conflict.
			s.logger.Warn("failed to record idempotency key", zap.String("key", idempotencyKey), zap.Error(err))
			s.cacheDelete(ctx, keyIdemPrefix+idempotencyKey)
		}
	}
	s.invalidateLists(ctx)

	return order, false, nil
}

// idempotencyRecord is stored under orders:idem:<key>. OrderID is empty while
// the first request is still in flight.
type idempotencyRecord struct {
	OrderID   string `json:"orderId"`
	DraftHash string `json:"draftHash"`
}

// draftHash fingerprints a validated draft. Map keys are marshalled in sorted order.
func draftHash(draft *models.OrderDraft) string {
	raw, _ := json.Marshal(draft)
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// validateDraft applies the field rules and checks the draft against the taxonomy.
// The subcategory is normalized to its display name.
func (s *orderService) validateDraft(draft *models.OrderDraft) error {
	var msgs []string
	if err := utils.ValidateStruct(draft); err != nil {
		msgs = append(msgs, utils.ParseErrors(err)...)
	}

	if _, err := s.taxonomy.Category(draft.Category); err != nil {
		msgs = append(msgs, fmt.Sprintf("category %q is not offered", draft.Category))
		return &models.ValidationError{Errors: msgs}
	}
	sub, err := s.taxonomy.ResolveSubcategory(draft.Category, draft.Subcategory)
	if err != nil {
		msgs = append(msgs, fmt.Sprintf("subcategory %q is not offered for %s", draft.Subcategory, draft.Category))
		return &models.ValidationError{Errors: msgs}
	}
	for key := range draft.Measurements {
		if !sub.HasKey(key) {
			msgs = append(msgs, fmt.Sprintf("measurement %q does not belong to %s", key, sub.Name))
		}
	}

	if len(msgs) > 0 {
		return &models.ValidationError{Errors: msgs}
	}
	draft.Subcategory = sub.Name
	return nil
}

// reserveIdempotencyKey reserves key for draft and returns the pending record.
// When the same draft was already stored under key, only the id of that order
// is returned: the create endpoint is public and must not echo order data.
func (s *orderService) reserveIdempotencyKey(ctx context.Context, key string, draft *models.OrderDraft) (*models.Order, *idempotencyRecord, error) {
	cacheKey := keyIdemPrefix + key
	record := &idempotencyRecord{DraftHash: draftHash(draft)}

	ok, err := s.cache.SetNX(ctx, cacheKey, record, idempotencyTTL)
	if err != nil {
		s.logger.Warn("idempotency reservation failed", zap.String("key", key), zap.Error(err))
		return nil, nil, nil
	}
	if ok {
		return nil, record, nil
	}

	var existing idempotencyRecord
	if err := s.cache.Get(ctx, cacheKey, &existing); err != nil {
		return nil, nil, models.ErrConflict
	}
	if existing.DraftHash != record.DraftHash {
		return nil, nil, models.ErrIdempotencyMismatch
	}
	if existing.OrderID == "" {
		return nil, nil, models.ErrConflict
	}
	id, err := primitive.ObjectIDFromHex(existing.OrderID)
	if err != nil {
		return nil, nil, models.ErrConflict
	}
	return &models.Order{ID: id}, nil, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	cacheKey := keyOrderPrefix + objID.Hex()
	if s.cache != nil {
		var cached models.Order
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	order, err := s.repo.GetByID(ctx, objID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, order)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query models.OrderQuery) (*models.OrderPage, error) {
	query.Page = utils.NormalizePage(query.Page)
	query.Limit = utils.NormalizeLimit(query.Limit)
	query.Filter = s.resolveFilter(query.Filter)

	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.pageCacheKey(ctx, query)
		var cached models.OrderPage
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	items, total, err := s.repo.FindPage(ctx, query.Filter, query.Page, query.Limit)
	if err != nil {
		return nil, err
	}
	page := &models.OrderPage{Items: items, Total: total, Page: query.Page, Limit: query.Limit}

	if cacheKey != "" {
		s.cacheSet(ctx, cacheKey, page)
	}
	return page, nil
}

// resolveFilter lets a subcategory filter given as a taxonomy id also match the
// display name that orders are stored with.
func (s *orderService) resolveFilter(f models.OrderFilter) models.OrderFilter {
	f.Shop = strings.TrimSpace(f.Shop)
	f.SubcategoryAny = nil
	if f.Category == "" || f.Subcategory == "" {
		return f
	}
	if name, ok := s.taxonomy.SubcategoryName(f.Category, f.Subcategory); ok && name != f.Subcategory {
		f.SubcategoryAny = []string{f.Subcategory, name}
	}
	return f
}

// pageCacheKey embeds the list generation so a create invalidates every cached page at once.
func (s *orderService) pageCacheKey(ctx context.Context, query models.OrderQuery) string {
	var gen int64
	if err := s.cache.Get(ctx, keyGeneration, &gen); err != nil && !errors.Is(err, utils.ErrCacheMiss) {
		s.logger.Warn("failed to read list generation", zap.Error(err))
	}

	raw, _ := json.Marshal(query)
	sum := sha1.Sum(raw)
	return keyPagePrefix + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(sum[:])
}

func (s *orderService) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, keyGeneration); err != nil {
		s.logger.Warn("failed to invalidate order lists", zap.Error(err))
	}
}

func (s *orderService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, cacheTTL); err != nil {
		s.logger.Warn("failed to cache", zap.String("key", key), zap.Error(err))
	}
}

func (s *orderService) cacheDelete(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete cache key", zap.String("key", key), zap.Error(err))
	}
}
