package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"tailor-app/internal/models"
	"tailor-app/internal/utils"
)

const collectionName = "orders"

// summaryProjection is what the admin table needs; measurements stay out of list reads.
var summaryProjection = bson.D{
	{Key: "shopName", Value: 1},
	{Key: "clientName", Value: 1},
	{Key: "clientNumber", Value: 1},
	{Key: "category", Value: 1},
	{Key: "subcategory", Value: 1},
	{Key: "createdAt", Value: 1},
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindPage(ctx context.Context, filter models.OrderFilter, page, limit int64) ([]models.OrderSummary, int64, error)
	FindAll(ctx context.Context, filter models.OrderFilter, max int64) ([]models.Order, error)
	EnsureIndexes(ctx context.Context) error
}

type orderRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{collection: db.Collection(collectionName), now: time.Now}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Measurements == nil {
		order.Measurements = map[string]float64{}
	}
	_, err := r.collection.InsertOne(ctx, order)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return nil, r.handleDatabaseError(err)
	}
	return &order, nil
}

func (r *orderRepository) FindPage(ctx context.Context, filter models.OrderFilter, page, limit int64) ([]models.OrderSummary, int64, error) {
	query := BuildOrderFilter(filter)
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(newestFirst).
		SetSkip(utils.Offset(page, limit)).
		SetLimit(limit)

	var (
		orders []models.OrderSummary
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := r.collection.Find(gctx, query, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &orders)
	})
	g.Go(func() error {
		n, err := r.collection.CountDocuments(gctx, query)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if orders == nil {
		orders = []models.OrderSummary{}
	}
	return orders, total, nil
}

func (r *orderRepository) FindAll(ctx context.Context, filter models.OrderFilter, max int64) ([]models.Order, error) {
	opts := options.Find().SetSort(newestFirst)
	if max > 0 {
		opts.SetLimit(max)
	}
	cursor, err := r.collection.Find(ctx, BuildOrderFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (r *orderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
	})
	return err
}

func (r *orderRepository) handleDatabaseError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}

// BuildOrderFilter turns an OrderFilter into a MongoDB query document.
// The createdAt range is only applied when both bounds are present.
func BuildOrderFilter(f models.OrderFilter) bson.M {
	query := bson.M{}

	if f.Shop != "" {
		query["shopName"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Shop), Options: "i"}
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	switch {
	case len(f.SubcategoryAny) > 1:
		query["subcategory"] = bson.M{"$in": f.SubcategoryAny}
	case len(f.SubcategoryAny) == 1:
		query["subcategory"] = f.SubcategoryAny[0]
	case f.Subcategory != "":
		query["subcategory"] = f.Subcategory
	}
	if f.StartDate != nil && f.EndDate != nil {
		query["createdAt"] = bson.M{
			"$gte": *f.StartDate,
			"$lte": *f.EndDate,
		}
	}

	return query
}
