package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoBlob is the document shape, one per key.
type mongoBlob struct {
	Key     string `bson:"_id"`
	Data    []byte `bson:"data"`
	Version int64  `bson:"version"`
}

// MongoGateway stores blobs as documents keyed by _id.
type MongoGateway struct {
	client     *mongo.Client
	collection *mongo.Collection
	ownsClient bool
}

// NewMongoGateway wraps a collection. When ownsClient is set, Close
// disconnects the client.
func NewMongoGateway(client *mongo.Client, coll *mongo.Collection, ownsClient bool) *MongoGateway {
	return &MongoGateway{client: client, collection: coll, ownsClient: ownsClient}
}

func (g *MongoGateway) IsAvailable(ctx context.Context) (bool, error) {
	if err := g.client.Ping(ctx, readpref.Primary()); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *MongoGateway) GetData(ctx context.Context, key string) ([]byte, error) {
	b, err := g.GetVersioned(ctx, key)
	return b.Data, err
}

func (g *MongoGateway) GetVersioned(ctx context.Context, key string) (Blob, error) {
	var doc mongoBlob
	err := g.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Blob{}, nil
		}
		return Blob{}, fmt.Errorf("find %s: %w", key, err)
	}
	return Blob{Data: doc.Data, Version: strconv.FormatInt(doc.Version, 10)}, nil
}

func (g *MongoGateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	_, err := g.collection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"data": data}, "$inc": bson.M{"version": int64(1)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return Receipt{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	return newReceipt(key, data), nil
}

func (g *MongoGateway) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	if version == "" {
		_, err := g.collection.InsertOne(ctx, mongoBlob{Key: key, Data: data, Version: 1})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return Receipt{}, ErrVersionConflict
			}
			return Receipt{}, fmt.Errorf("insert %s: %w", key, err)
		}
		return newReceipt(key, data), nil
	}

	expected, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return Receipt{}, fmt.Errorf("invalid version %q: %w", version, err)
	}
	res, err := g.collection.UpdateOne(ctx,
		bson.M{"_id": key, "version": expected},
		bson.M{"$set": bson.M{"data": data}, "$inc": bson.M{"version": int64(1)}},
	)
	if err != nil {
		return Receipt{}, fmt.Errorf("conditional update %s: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return Receipt{}, ErrVersionConflict
	}
	return newReceipt(key, data), nil
}

func (g *MongoGateway) Address(ctx context.Context) (string, error) {
	return "mongodb://" + g.collection.Database().Name() + "/" + g.collection.Name(), nil
}

func (g *MongoGateway) Backend() string { return BackendMongo }

func (g *MongoGateway) Close() error {
	if g.ownsClient {
		return g.client.Disconnect(context.Background())
	}
	return nil
}
