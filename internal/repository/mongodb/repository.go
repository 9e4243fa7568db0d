package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/store"
)

var _ store.Store = (*MongoDBRepository)(nil)

const (
	productsCollection   = "products"
	operationsCollection = "operations"
	shoppingCollection   = "shopping_items"
	countersCollection   = "counters"
)

// MongoDBRepository implements store.Store on MongoDB. Numeric ids come from
// a counters collection so records keep the same identity as the SQL backends.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		now:    time.Now,
	}, nil
}

func (r *MongoDBRepository) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", sequence, err)
	}
	return counter.Seq, nil
}

// ListProducts filters server-side and orders in process so that absent
// subcategories and dimensions sort last, as in the SQL backends.
func (r *MongoDBRepository) ListProducts(ctx context.Context, query models.ProductQuery) ([]models.Product, error) {
	cursor, err := r.db.Collection(productsCollection).Find(ctx, productFilter(query))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	var out []models.Product
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	store.SortProducts(out)
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (r *MongoDBRepository) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var p models.Product
	err := r.db.Collection(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, store.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return p, nil
}

func (r *MongoDBRepository) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	id, err := r.nextID(ctx, productsCollection)
	if err != nil {
		return models.Product{}, err
	}
	p.ID = id
	if _, err := r.db.Collection(productsCollection).InsertOne(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (r *MongoDBRepository) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	filter := bson.M{"_id": id}
	if patch.ExpectedQuantity != nil {
		filter["quantity"] = *patch.ExpectedQuantity
	}
	update := productUpdate(patch)
	if len(update) == 0 {
		return r.GetProduct(ctx, id)
	}

	var updated models.Product
	err := r.db.Collection(productsCollection).FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	if _, getErr := r.GetProduct(ctx, id); getErr != nil {
		return models.Product{}, getErr
	}
	return models.Product{}, store.ErrStaleQuantity
}

func (r *MongoDBRepository) InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error) {
	id, err := r.nextID(ctx, operationsCollection)
	if err != nil {
		return models.Operation{}, err
	}
	op.ID = id
	op.CreatedAt = r.now().UTC()
	if _, err := r.db.Collection(operationsCollection).InsertOne(ctx, op); err != nil {
		return models.Operation{}, fmt.Errorf("failed to insert operation: %w", err)
	}
	return op, nil
}

func (r *MongoDBRepository) ListOperations(ctx context.Context, productID int64, limit int) ([]models.Operation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.db.Collection(operationsCollection).Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find operations: %w", err)
	}
	var out []models.Operation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode operations: %w", err)
	}
	return out, nil
}

func (r *MongoDBRepository) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.db.Collection(shoppingCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find shopping items: %w", err)
	}
	var out []models.ShoppingItem
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode shopping items: %w", err)
	}
	return out, nil
}

func (r *MongoDBRepository) InsertShoppingItem(ctx context.Context, label string) (models.ShoppingItem, error) {
	id, err := r.nextID(ctx, shoppingCollection)
	if err != nil {
		return models.ShoppingItem{}, err
	}
	item := models.ShoppingItem{ID: id, Label: strings.TrimSpace(label), CreatedAt: r.now().UTC()}
	if _, err := r.db.Collection(shoppingCollection).InsertOne(ctx, item); err != nil {
		return models.ShoppingItem{}, fmt.Errorf("failed to insert shopping item: %w", err)
	}
	return item, nil
}

func (r *MongoDBRepository) SetShoppingItemPurchased(ctx context.Context, id int64, purchased bool) (models.ShoppingItem, error) {
	var item models.ShoppingItem
	err := r.db.Collection(shoppingCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"purchased": purchased}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ShoppingItem{}, store.ErrNotFound
	}
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("failed to update shopping item %d: %w", id, err)
	}
	return item, nil
}

func (r *MongoDBRepository) DeleteShoppingItem(ctx context.Context, id int64) error {
	res, err := r.db.Collection(shoppingCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete shopping item %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func productFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	addLabelFilter(filter, "subcategory", q.Subcategory)
	addLabelFilter(filter, "dimension", q.Dimension)
	if q.NameLike != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q.NameLike), "$options": "i"}
	}
	return filter
}

func addLabelFilter(filter bson.M, field string, f *models.LabelFilter) {
	switch {
	case f == nil:
	case f.Missing:
		// null also matches documents without the field.
		filter[field] = bson.M{"$in": bson.A{nil, ""}}
	default:
		filter[field] = f.Value
	}
}

func productUpdate(patch models.ProductPatch) bson.M {
	set := bson.M{}
	unset := bson.M{}
	optional := func(field string, value *string) {
		switch {
		case value != nil && *value != "":
			set[field] = *value
		case value != nil || patch.ClearEmpty:
			unset[field] = ""
		}
	}

	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	optional("subcategory", patch.Subcategory)
	optional("dimension", patch.Dimension)
	if patch.Unit != nil {
		set["unit"] = *patch.Unit
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	optional("notes", patch.Notes)
	if patch.LastModifiedBy != nil {
		set["last_modified_by"] = *patch.LastModifiedBy
	}
	if patch.LastModifiedAt != nil {
		set["last_modified_at"] = patch.LastModifiedAt.UTC()
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
