package fastqueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"labelq/internal/services"
)

// maxTxnOps matches the etcd server's default --max-txn-ops.
const maxTxnOps = 128

// EtcdOptions configures the etcd backend.
type EtcdOptions struct {
	Endpoints   []string
	Prefix      string
	DialTimeout time.Duration
}

// Etcd stores each entry as its own key, "<prefix><queueID>/<uuidv7>", with
// the data id as the value. Version 7 UUIDs sort by creation time, so a
// range read in key order returns entries in push order.
type Etcd struct {
	client *clientv3.Client
	prefix string
	owned  bool
}

// DialEtcd connects to etcd and verifies the cluster is reachable.
func DialEtcd(ctx context.Context, opts EtcdOptions) (*Etcd, error) {
	if len(opts.Endpoints) == 0 {
		return nil, services.Wrap(services.ErrValidation, "fastqueue", "dial", "no etcd endpoints configured", nil)
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "fastqueue", "dial", strings.Join(opts.Endpoints, ","), err)
	}
	probeCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if _, err := client.Get(probeCtx, "health", clientv3.WithCountOnly()); err != nil {
		_ = client.Close()
		return nil, services.Wrap(services.ErrUnavailable, "fastqueue", "dial", "etcd probe failed", err)
	}
	q := NewEtcd(client, opts.Prefix)
	q.owned = true
	return q, nil
}

// NewEtcd wraps an existing client. Close does not close a client supplied
// here.
func NewEtcd(client *clientv3.Client, prefix string) *Etcd {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Etcd{client: client, prefix: prefix}
}

func (e *Etcd) queuePrefix(queueID int64) string {
	return e.prefix + strconv.FormatInt(queueID, 10) + "/"
}

// Push writes one key per id in transactions of at most maxTxnOps puts.
func (e *Etcd) Push(ctx context.Context, queueID int64, dataIDs ...int64) error {
	prefix := e.queuePrefix(queueID)
	for start := 0; start < len(dataIDs); start += maxTxnOps {
		end := min(start+maxTxnOps, len(dataIDs))
		ops := make([]clientv3.Op, 0, end-start)
		for _, id := range dataIDs[start:end] {
			key, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("entry key: %w", err)
			}
			ops = append(ops, clientv3.OpPut(prefix+key.String(), strconv.FormatInt(id, 10)))
		}
		if _, err := e.client.Txn(ctx).Then(ops...).Commit(); err != nil {
			return services.Wrap(services.ErrUnavailable, "fastqueue", "push", fmt.Sprintf("queue %d", queueID), err)
		}
	}
	return nil
}

// PopOne reads the oldest key and deletes it. When several callers read the
// same key only one delete removes it; the others move on to the next key.
func (e *Etcd) PopOne(ctx context.Context, queueID int64) (int64, bool, error) {
	prefix := e.queuePrefix(queueID)
	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		resp, err := e.client.Get(ctx, prefix,
			clientv3.WithPrefix(),
			clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
			clientv3.WithLimit(1),
		)
		if err != nil {
			return 0, false, services.Wrap(services.ErrUnavailable, "fastqueue", "pop", fmt.Sprintf("queue %d", queueID), err)
		}
		if len(resp.Kvs) == 0 {
			return 0, false, nil
		}
		kv := resp.Kvs[0]
		del, err := e.client.Delete(ctx, string(kv.Key))
		if err != nil {
			return 0, false, services.Wrap(services.ErrUnavailable, "fastqueue", "pop", fmt.Sprintf("queue %d", queueID), err)
		}
		if del.Deleted != 1 {
			continue
		}
		id, err := strconv.ParseInt(string(kv.Value), 10, 64)
		if err != nil {
			return 0, false, services.Wrap(services.ErrIntegrity, "fastqueue", "pop", fmt.Sprintf("bad entry %s", kv.Key), err)
		}
		return id, true, nil
	}
}

// Len counts the keys under the queue prefix.
func (e *Etcd) Len(ctx context.Context, queueID int64) (int, error) {
	resp, err := e.client.Get(ctx, e.queuePrefix(queueID), clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "fastqueue", "len", fmt.Sprintf("queue %d", queueID), err)
	}
	return int(resp.Count), nil
}

// Members returns the queued ids in key order, which is pop order.
func (e *Etcd) Members(ctx context.Context, queueID int64) ([]int64, error) {
	resp, err := e.client.Get(ctx, e.queuePrefix(queueID),
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "fastqueue", "members", fmt.Sprintf("queue %d", queueID), err)
	}
	ids := make([]int64, 0, len(resp.Kvs))
	var errs []error
	for _, kv := range resp.Kvs {
		id, err := strconv.ParseInt(string(kv.Value), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %s: %w", kv.Key, err))
			continue
		}
		ids = append(ids, id)
	}
	if len(errs) > 0 {
		return ids, services.Wrap(services.ErrIntegrity, "fastqueue", "members", fmt.Sprintf("queue %d", queueID), errors.Join(errs...))
	}
	return ids, nil
}

// Drop deletes every key under the queue prefix.
func (e *Etcd) Drop(ctx context.Context, queueID int64) error {
	if _, err := e.client.Delete(ctx, e.queuePrefix(queueID), clientv3.WithPrefix()); err != nil {
		return services.Wrap(services.ErrUnavailable, "fastqueue", "drop", fmt.Sprintf("queue %d", queueID), err)
	}
	return nil
}

// Close closes the client when it was dialed by DialEtcd.
func (e *Etcd) Close() error {
	if !e.owned || e.client == nil {
		return nil
	}
	return e.client.Close()
}
