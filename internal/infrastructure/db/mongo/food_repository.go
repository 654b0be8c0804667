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

const collectionFoods = "foods"

// FoodRepository implements ports.FoodRepository using MongoDB.
type FoodRepository struct {
	coll *mongo.Collection
}

func NewFoodRepository(db *mongo.Database) *FoodRepository {
	return &FoodRepository{coll: db.Collection(collectionFoods)}
}

type mongoFood struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Price     int64              `bson:"price"`
	Available bool               `bson:"available"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (mf *mongoFood) toDomain() *domain.FoodItem {
	return &domain.FoodItem{
		ID:        mf.ID.Hex(),
		Name:      mf.Name,
		Price:     domain.Money(mf.Price),
		Available: mf.Available,
		CreatedAt: mf.CreatedAt.UTC(),
		UpdatedAt: mf.UpdatedAt.UTC(),
	}
}

// Create inserts a new food document and sets food.ID.
func (r *FoodRepository) Create(ctx context.Context, food *domain.FoodItem) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoFood{
		ID:        primitive.NewObjectID(),
		Name:      food.Name,
		Price:     int64(food.Price),
		Available: food.Available,
		CreatedAt: food.CreatedAt.UTC(),
		UpdatedAt: food.UpdatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert food: %w", err)
	}
	food.ID = doc.ID.Hex()
	return nil
}

// FindByIDs returns the foods that exist among ids. Unknown or malformed ids are
// simply absent from the result.
func (r *FoodRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.FoodItem, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find foods: %w", err)
	}
	var docs []mongoFood
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode foods: %w", err)
	}

	out := make([]*domain.FoodItem, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Update applies the non-nil fields of upd and returns the updated item.
func (r *FoodRepository) Update(ctx context.Context, id string, upd ports.FoodUpdate) (*domain.FoodItem, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, domain.ErrFoodNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Price != nil {
		set["price"] = int64(*upd.Price)
	}
	if upd.Available != nil {
		set["available"] = *upd.Available
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mf mongoFood
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mf); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFoodNotFound
		}
		return nil, fmt.Errorf("update food: %w", err)
	}
	return mf.toDomain(), nil
}

// EnsureIndexes creates necessary indexes on the foods collection.
func (r *FoodRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "available", Value: 1}}})
	return err
}
