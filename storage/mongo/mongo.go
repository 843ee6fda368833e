package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/storage"
)

const (
	productsCollection = "aowotoy_products"
	countersCollection = "counters"
)

type MongoRepo struct {
	client   *mongo.Client
	products *mongo.Collection
	counters *mongo.Collection
	log      *slog.Logger
}

// New connects to uri, pings the server and ensures the unique url index.
func New(ctx context.Context, uri, database string, log *slog.Logger) (*MongoRepo, error) {
	const op = "storage.mongo.New"

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to mongodb: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: failed to ping mongodb: %w", op, err)
	}

	if log == nil {
		log = slog.Default()
	}
	db := client.Database(database)
	r := &MongoRepo{
		client:   client,
		products: db.Collection(productsCollection),
		counters: db.Collection(countersCollection),
		log:      log,
	}

	_, err = r.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: create indexes: %w", op, err)
	}

	log.Info("connected to MongoDB", slog.String("database", database))
	return r, nil
}

func (r *MongoRepo) FindByURL(ctx context.Context, url string) (int64, bool, error) {
	const op = "storage.mongo.FindByURL"

	var doc struct {
		ID int64 `bson:"id"`
	}
	err := r.products.FindOne(ctx, bson.M{"url": url}, options.FindOne().SetProjection(bson.M{"id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return doc.ID, true, nil
}

// Insert takes the next id from the counters document and inserts rec. The
// unique url index turns a concurrent duplicate into storage.ErrDuplicateURL.
func (r *MongoRepo) Insert(ctx context.Context, rec *models.ProductRecord) (int64, error) {
	const op = "storage.mongo.Insert"

	id, err := r.nextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	doc := *rec
	doc.ID = id
	doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, storage.ErrDuplicateURL
		}
		return 0, fmt.Errorf("%s: failed to insert product: %w", op, err)
	}

	rec.ID = doc.ID
	rec.CreatedAt = doc.CreatedAt
	return id, nil
}

func (r *MongoRepo) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": productsCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoRepo) ProductByID(ctx context.Context, id int64) (models.ProductRecord, error) {
	const op = "storage.mongo.ProductByID"

	var rec models.ProductRecord
	err := r.products.FindOne(ctx, bson.M{"id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProductRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (r *MongoRepo) Products(ctx context.Context) ([]models.ProductRecord, error) {
	const op = "storage.mongo.Products"

	cursor, err := r.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cursor.Close(ctx)

	var products []models.ProductRecord
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	return products, nil
}

func (r *MongoRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
