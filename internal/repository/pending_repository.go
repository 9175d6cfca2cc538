package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rebika14/eyee-wear-store/internal/models"
)

// PendingTransaction is the snapshot written when a payment is initiated and
// read back when the gateway callback arrives.
type PendingTransaction struct {
	Pidx         string              `json:"pidx"`
	Amount       decimal.Decimal     `json:"amount"`
	CustomerInfo models.CustomerInfo `json:"customer_info"`
	SessionID    string              `json:"session_id"`
	CreatedAt    time.Time           `json:"created_at"`
}

// PendingStore keys pending transactions by the gateway transaction index.
type PendingStore interface {
	Get(ctx context.Context, pidx string) (*PendingTransaction, error)
	Save(ctx context.Context, txn *PendingTransaction) error
	Delete(ctx context.Context, pidx string) error
}

// PendingRepository stores pending transactions in Redis with a TTL, so a
// checkout abandoned at the gateway expires on its own.
type PendingRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPendingRepository(client *redis.Client, ttl time.Duration) *PendingRepository {
	return &PendingRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *PendingRepository) getKey(pidx string) string {
	return fmt.Sprintf("pending:txn:%s", pidx)
}

// Get returns nil without error when no pending transaction exists for pidx.
func (r *PendingRepository) Get(ctx context.Context, pidx string) (*PendingTransaction, error) {
	data, err := r.client.Get(ctx, r.getKey(pidx)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var txn PendingTransaction
	if err := json.Unmarshal([]byte(data), &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *PendingRepository) Save(ctx context.Context, txn *PendingTransaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(txn.Pidx), data, r.ttl).Err()
}

func (r *PendingRepository) Delete(ctx context.Context, pidx string) error {
	return r.client.Del(ctx, r.getKey(pidx)).Err()
}
