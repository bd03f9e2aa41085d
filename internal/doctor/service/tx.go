package service

import (
	"context"
	"sync"
	"time"

	dErrors "medboard/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for lifecycle mutations. The
// suspend flow counts the ledger and then acts on the result, so the count
// and the mutation must not interleave with another suspension of the same
// doctor. Implementations wrap a database transaction or, in-memory, a
// per-doctor lock. The key is the doctor ID the operation targets.
type StoreTx interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Sharded locking: instead of one global mutex, operations hash their doctor
// ID across N shards so unrelated doctors don't contend.
const numTxShards = 128

const defaultTxTimeout = 5 * time.Second

// ShardedTx is the in-memory StoreTx. Two operations on the same doctor
// serialize on the same shard; the memory stores do their own fine-grained
// locking underneath.
type ShardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{timeout: defaultTxTimeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := hashKey(key) % numTxShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashKey uses FNV-1a for even shard distribution.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
