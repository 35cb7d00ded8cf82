// Package mongodb is the remote document store adapter used by the sync
// engine. Documents are keyed by entity id; writes use $set merge semantics
// so fields unknown to this app are preserved remotely.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	syncsvc "github.com/ruralmed/clinicstock/internal/service/sync"
)

const (
	collInventory = "inventory"
	collUsers     = "users"
	collLogs      = "logs"
)

// RemoteStore implements the sync engine's Remote boundary on MongoDB.
type RemoteStore struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

var _ syncsvc.Remote = (*RemoteStore)(nil)

// NewRemoteStore connects to MongoDB and verifies the connection.
func NewRemoteStore(ctx context.Context, uri, dbName string, logger *zap.Logger) (*RemoteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &RemoteStore{client: client, dbName: dbName, logger: logger}, nil
}

// Close closes the MongoDB connection.
func (r *RemoteStore) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Push writes the whole snapshot as merge-upserts inside one server
// transaction, so a sync pass never leaves a partially written remote.
func (r *RemoteStore) Push(ctx context.Context, snap syncsvc.Snapshot) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := pushCollection(sc, r.collection(collInventory), inventoryModels(snap.Inventory)); err != nil {
			return nil, fmt.Errorf("push inventory: %w", err)
		}
		if err := pushCollection(sc, r.collection(collUsers), userModels(snap.Users)); err != nil {
			return nil, fmt.Errorf("push users: %w", err)
		}
		if err := pushCollection(sc, r.collection(collLogs), logModels(snap.Logs)); err != nil {
			return nil, fmt.Errorf("push logs: %w", err)
		}
		return nil, nil
	})
	return err
}

// Pull reads the full contents of every remote collection. Documents that do
// not match the expected schema are dropped with a warning rather than
// trusted.
func (r *RemoteStore) Pull(ctx context.Context) (syncsvc.Snapshot, error) {
	var snap syncsvc.Snapshot

	items, err := pullCollection[models.InventoryItem](ctx, r.collection(collInventory), r.logger)
	if err != nil {
		return syncsvc.Snapshot{}, fmt.Errorf("pull inventory: %w", err)
	}
	for _, item := range items {
		if item.ID == "" || item.Quantity < 0 {
			r.logger.Warn("dropping malformed remote inventory document", zap.String("id", item.ID))
			continue
		}
		snap.Inventory = append(snap.Inventory, item)
	}

	users, err := pullCollection[models.RegisteredUser](ctx, r.collection(collUsers), r.logger)
	if err != nil {
		return syncsvc.Snapshot{}, fmt.Errorf("pull users: %w", err)
	}
	for _, user := range users {
		if user.ID == "" || user.Username == "" {
			r.logger.Warn("dropping malformed remote user document", zap.String("id", user.ID))
			continue
		}
		snap.Users = append(snap.Users, user)
	}

	logs, err := pullCollection[models.ConsumptionLog](ctx, r.collection(collLogs), r.logger)
	if err != nil {
		return syncsvc.Snapshot{}, fmt.Errorf("pull logs: %w", err)
	}
	for _, log := range logs {
		if log.ID == "" || log.QuantityUsed <= 0 {
			r.logger.Warn("dropping malformed remote log document", zap.String("id", log.ID))
			continue
		}
		snap.Logs = append(snap.Logs, log)
	}

	return snap, nil
}

func (r *RemoteStore) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func pushCollection(ctx context.Context, coll *mongo.Collection, writes []mongo.WriteModel) error {
	if len(writes) == 0 {
		return nil
	}
	if _, err := coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("bulk write %s: %w", coll.Name(), err)
	}
	return nil
}

// pullCollection decodes every document of a collection, skipping those the
// driver cannot map onto the target type. BSON date fields come back as
// time.Time, which is the canonical timestamp form everywhere in this app.
func pullCollection[T any](ctx context.Context, coll *mongo.Collection, logger *zap.Logger) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn("skipping undecodable remote document",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out = append(out, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", coll.Name(), err)
	}
	return out, nil
}

// mergeUpsert builds an upsert keyed by id whose $set omits _id, since
// MongoDB rejects updates touching the immutable _id path.
func mergeUpsert(id string, doc interface{}) mongo.WriteModel {
	raw, err := bson.Marshal(doc)
	if err != nil {
		// Domain structs always marshal; a failure here is programmer error.
		panic(fmt.Sprintf("marshal sync document: %v", err))
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		panic(fmt.Sprintf("remarshal sync document: %v", err))
	}
	delete(fields, "_id")

	return mongo.NewUpdateOneModel().
		SetFilter(bson.M{"_id": id}).
		SetUpdate(bson.M{"$set": fields}).
		SetUpsert(true)
}

func inventoryModels(items []models.InventoryItem) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		writes = append(writes, mergeUpsert(item.ID, item))
	}
	return writes
}

func userModels(users []models.RegisteredUser) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(users))
	for _, user := range users {
		writes = append(writes, mergeUpsert(user.ID, user))
	}
	return writes
}

func logModels(logs []models.ConsumptionLog) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(logs))
	for _, log := range logs {
		writes = append(writes, mergeUpsert(log.ID, log))
	}
	return writes
}
