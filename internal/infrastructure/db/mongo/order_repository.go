package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

const collectionOrders = "orders"

// OrderRepository implements ports.OrderRepository using MongoDB.
type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collectionOrders)}
}

type mongoOrderItem struct {
	FoodID    string `bson:"food_id"`
	Name      string `bson:"name"`
	Quantity  int    `bson:"quantity"`
	UnitPrice int64  `bson:"unit_price"`
}

type mongoHistoryEntry struct {
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
	ActorID   string    `bson:"actor_id,omitempty"`
}

type mongoOrder struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	PickupCode    string              `bson:"pickup_code"`
	UserID        string              `bson:"user_id"`
	Items         []mongoOrderItem    `bson:"items"`
	Total         int64               `bson:"total"`
	Status        string              `bson:"status"`
	StatusHistory []mongoHistoryEntry `bson:"status_history"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

func toMongoOrder(o *domain.Order) mongoOrder {
	doc := mongoOrder{
		PickupCode: o.PickupCode,
		UserID:     o.UserID,
		Total:      int64(o.Total),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt.UTC(),
		UpdatedAt:  o.UpdatedAt.UTC(),
	}
	for _, it := range o.Items {
		doc.Items = append(doc.Items, mongoOrderItem{
			FoodID:    it.FoodID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: int64(it.UnitPrice),
		})
	}
	for _, h := range o.StatusHistory {
		doc.StatusHistory = append(doc.StatusHistory, mongoHistoryEntry{
			Status:    string(h.Status),
			Timestamp: h.Timestamp.UTC(),
			ActorID:   h.ActorID,
		})
	}
	return doc
}

func (mo *mongoOrder) toDomain() *domain.Order {
	o := &domain.Order{
		ID:         mo.ID.Hex(),
		PickupCode: mo.PickupCode,
		UserID:     mo.UserID,
		Total:      domain.Money(mo.Total),
		Status:     domain.OrderStatus(mo.Status),
		CreatedAt:  mo.CreatedAt.UTC(),
		UpdatedAt:  mo.UpdatedAt.UTC(),
		Items:      make([]domain.OrderItem, 0, len(mo.Items)),
	}
	for _, it := range mo.Items {
		o.Items = append(o.Items, domain.OrderItem{
			FoodID:    it.FoodID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: domain.Money(it.UnitPrice),
		})
	}
	for _, h := range mo.StatusHistory {
		o.StatusHistory = append(o.StatusHistory, domain.StatusHistoryEntry{
			Status:    domain.OrderStatus(h.Status),
			Timestamp: h.Timestamp.UTC(),
			ActorID:   h.ActorID,
		})
	}
	return o
}

// Create inserts a new order document and sets o.ID.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoOrder(o)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = doc.ID.Hex()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mo mongoOrder
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return mo.toDomain(), nil
}

// List returns orders matching filter, newest first. ObjectIDs grow with
// insertion time, so _id breaks ties between equal created_at values.
func (r *OrderRepository) List(ctx context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []mongoOrder
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// UpdateStatus atomically sets the status and appends a history entry, guarded by
// the expected current status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time, actorID string) (*domain.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	historyEntry := mongoHistoryEntry{Status: string(to), Timestamp: at.UTC(), ActorID: actorID}
	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{
		"$set":  bson.M{"status": string(to), "updated_at": at.UTC()},
		"$push": bson.M{"status_history": historyEntry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mo mongoOrder
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mo)
	if err == nil {
		return mo.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	// Nothing matched: either the order is gone or someone else moved it first.
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return nil, domain.ErrInvalidTransition
}

type statusBucket struct {
	Status  string `bson:"_id"`
	Count   int64  `bson:"count"`
	Revenue int64  `bson:"revenue"`
}

// Stats counts orders per status and sums the totals of non-cancelled orders.
func (r *OrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	var buckets []statusBucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode order stats: %w", err)
	}

	stats := &domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int64, len(buckets))}
	for _, b := range buckets {
		st := domain.OrderStatus(b.Status)
		stats.ByStatus[st] += b.Count
		stats.TotalOrders += b.Count
		if st != domain.StatusCancelled {
			stats.Revenue += domain.Money(b.Revenue)
		}
	}
	return stats, nil
}

// EnsureIndexes creates necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
