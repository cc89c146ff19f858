package etcdkv

import (
	"errors"

	"go.etcd.io/etcd/api/v3/mvccpb"
	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
)

func itemFromKV(kv *mvccpb.KeyValue) Item {
	return Item{
		Key:            string(kv.Key),
		Value:          string(kv.Value),
		CreateRevision: kv.CreateRevision,
		ModRevision:    kv.ModRevision,
		Version:        kv.Version,
		Lease:          kv.Lease,
	}
}

func isCompacted(err error) bool {
	return errors.Is(err, rpctypes.ErrCompacted)
}
