// Package store implements local loose-object storage.
//
// The Store interface is a narrow get/put/has abstraction over
// content-addressed objects. Objects are stored in git's loose format: a
// "<type> <length>\0" header followed by the content, zlib-deflated, at a
// path sharded on the first two hex digits of the id.
package store

import "context"

// Object is a typed payload headed for the store.
type Object struct {
	Type    string
	Content []byte
}

// Store handles local object storage. Ids are 40-character lowercase hex
// SHA-1 digests of the framed object.
type Store interface {
	// Get retrieves an object by id.
	Get(ctx context.Context, id string) (Object, error)

	// Put stores an object and returns its id.
	Put(ctx context.Context, obj Object) (id string, err error)

	// Has checks whether an object exists.
	Has(ctx context.Context, id string) (bool, error)

	// HasAll checks whether every listed object exists.
	HasAll(ctx context.Context, ids []string) (bool, error)

	// GetMulti retrieves a batch of objects, keyed by id. Any missing
	// object fails the whole batch.
	GetMulti(ctx context.Context, ids []string) (map[string]Object, error)

	// PutMulti stores a batch of objects, returning their ids in order.
	PutMulti(ctx context.Context, objs []Object) ([]string, error)

	// Evict removes an object from the read cache (not from disk).
	Evict(id string)

	// Clear drops the in-memory read cache.
	Clear()
}
