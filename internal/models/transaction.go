package models

import (
	"strings"
	"time"

	"swapp/api/internal/utils"
)

type TransactionState string

const (
	TransactionPending  TransactionState = "pending"
	TransactionApproved TransactionState = "approved"
	TransactionRejected TransactionState = "rejected"
)

// OpenTransactionStates still block a new proposal for the same pair and pin both items.
var OpenTransactionStates = []TransactionState{TransactionPending, TransactionApproved}

// Transaction is a swap proposal of Item1 (proposer's) for Item2.
type Transaction struct {
	Base         `bson:",inline"`
	Item1ID      utils.SixID      `bson:"item1_id" json:"item1_id"`
	Item2ID      utils.SixID      `bson:"item2_id" json:"item2_id"`
	Item1OwnerID utils.SixID      `bson:"item1_owner_id" json:"item1_owner_id"`
	Item2OwnerID utils.SixID      `bson:"item2_owner_id" json:"item2_owner_id"`
	State        TransactionState `bson:"state" json:"state"`
	// OpenPair is set only while the transaction is open; a unique sparse index on it
	// guarantees one open transaction per unordered item pair.
	OpenPair    string     `bson:"open_pair,omitempty" json:"-"`
	DateCreated time.Time  `bson:"date_created" json:"date_created"`
	DateDecided *time.Time `bson:"date_decided,omitempty" json:"date_decided,omitempty"`
}

// PairKey normalises an unordered item pair.
func PairKey(a, b utils.SixID) string {
	as, bs := a.String(), b.String()
	if strings.Compare(as, bs) > 0 {
		as, bs = bs, as
	}
	return as + ":" + bs
}

// PendingTransaction is the per-user view of an open offer.
type PendingTransaction struct {
	UserItemID    utils.SixID `json:"user_item_id"`
	OtherItemID   utils.SixID `json:"other_item_id"`
	ActionFromID  utils.SixID `json:"action_from_id"`
	TransactionID utils.SixID `json:"transaction_id"`
}

// SwapHistory is the permanent record of an approved swap.
type SwapHistory struct {
	Base          `bson:",inline"`
	User1ID       utils.SixID `bson:"user1_id" json:"user1_id"`
	User2ID       utils.SixID `bson:"user2_id" json:"user2_id"`
	Item1ID       utils.SixID `bson:"item1_id" json:"item1_id"`
	Item2ID       utils.SixID `bson:"item2_id" json:"item2_id"`
	TransactionID utils.SixID `bson:"transaction_id" json:"transaction_id"`
	Date          time.Time   `bson:"date" json:"date"`
}
