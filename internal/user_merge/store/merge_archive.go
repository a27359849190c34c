/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/evap/user-merge-service/internal/user_merge/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MergeArchiveInterface copies completed merge records to long term storage.
type MergeArchiveInterface interface {
	Archive(ctx context.Context, record *model.MergeRecord) error
	GetArchivedMerges(ctx context.Context, mainUserId int64) ([]model.MergeRecord, error)
	Close(ctx context.Context) error
}

// MongoMergeArchive keeps merge records in a MongoDB collection keyed by merge id.
type MongoMergeArchive struct {
	client     *mongo.Client
	Collection *mongo.Collection
}

// ConnectMongoMergeArchive connects to MongoDB and verifies the connection is live.
func ConnectMongoMergeArchive(ctx context.Context, uri, dbName, collectionName string) (*MongoMergeArchive, error) {

	logger := log.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		errorMsg := "MongoDB client creation failed"
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.WithDescription(errors.ARCHIVE_MERGE_RECORD, errorMsg), err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		errorMsg := "MongoDB ping failed"
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.WithDescription(errors.ARCHIVE_MERGE_RECORD, errorMsg), err)
	}
	logger.Info("Connected to merge archive", log.String("database", dbName),
		log.String("collection", collectionName))
	return NewMongoMergeArchive(client, client.Database(dbName).Collection(collectionName)), nil
}

func NewMongoMergeArchive(client *mongo.Client, collection *mongo.Collection) *MongoMergeArchive {
	return &MongoMergeArchive{
		client:     client,
		Collection: collection,
	}
}

// Archive upserts the record so that retries after a partial failure do not duplicate it.
func (a *MongoMergeArchive) Archive(ctx context.Context, record *model.MergeRecord) error {

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": record.MergeId}
	_, err := a.Collection.ReplaceOne(ctx, filter, record, options.Replace().SetUpsert(true))
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to archive merge %s", record.MergeId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.WithDescription(errors.ARCHIVE_MERGE_RECORD, errorMsg), err)
	}
	return nil
}

// GetArchivedMerges returns archived merges the user profile survived.
func (a *MongoMergeArchive) GetArchivedMerges(ctx context.Context, mainUserId int64) ([]model.MergeRecord, error) {

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := a.Collection.Find(ctx, bson.M{"main_user_id": mainUserId},
		options.Find().SetSort(bson.D{{Key: "merged_at", Value: 1}}))
	if err != nil {
		return nil, errors.NewServerError(errors.WithDescription(errors.ARCHIVE_MERGE_RECORD,
			fmt.Sprintf("Failed to fetch archived merges of user profile %d", mainUserId)), err)
	}
	defer cursor.Close(ctx)

	var records []model.MergeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errors.NewServerError(errors.WithDescription(errors.ARCHIVE_MERGE_RECORD,
			fmt.Sprintf("Failed to decode archived merges of user profile %d", mainUserId)), err)
	}
	return records, nil
}

func (a *MongoMergeArchive) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
