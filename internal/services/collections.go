package services

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	pushDevicesCollection   = "push_devices"
	itemsCollection         = "items"
	categoriesCollection    = "categories"
	subcategoriesCollection = "subcategories"
	tagsCollection          = "tags"
	transactionsCollection  = "transactions"
	notificationsCollection = "notifications"
	threadsCollection       = "threads"
	messagesCollection      = "messages"
	swapHistoryCollection   = "swap_history"
)

// Collections lists every collection the services use.
func Collections() []string {
	return []string{
		usersCollection, pushDevicesCollection, itemsCollection, categoriesCollection,
		subcategoriesCollection, tagsCollection, transactionsCollection, notificationsCollection,
		threadsCollection, messagesCollection, swapHistoryCollection,
	}
}

// openPairIndex is the unique sparse index that allows one open transaction per item pair.
const openPairIndex = "open_pair_1"

// Indexes returns the indexes each collection needs; applied at startup with db.EnsureIndexes.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		pushDevicesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		itemsCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "is_available", Value: 1}}},
			{Keys: bson.D{{Key: "subcategory_id", Value: 1}}},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		subcategoriesCollection: {
			{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		tagsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		transactionsCollection: {
			{Keys: bson.D{{Key: "open_pair", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName(openPairIndex)},
			{Keys: bson.D{{Key: "item1_owner_id", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "item2_owner_id", Value: 1}, {Key: "state", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "date_created", Value: -1}}},
			{Keys: bson.D{{Key: "transaction_id", Value: 1}, {Key: "type", Value: 1}}},
		},
		threadsCollection: {
			{Keys: bson.D{{Key: "transaction_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "date_modified", Value: -1}}},
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "date_modified", Value: -1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "date_sent", Value: 1}}},
		},
		swapHistoryCollection: {
			{Keys: bson.D{{Key: "user1_id", Value: 1}}},
			{Keys: bson.D{{Key: "user2_id", Value: 1}}},
		},
	}
}
