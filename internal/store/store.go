package store

import (
	"context"
	"errors"
)

// ErrUnavailable marks transient transport failures talking to the document
// database. Callers decide whether to retry; the store never retries on its
// own and never crashes the process.
var ErrUnavailable = errors.New("store unavailable")

// Store is the contract the core holds against the shared document database.
// Documents form a JSON tree addressed by slash-separated paths.
//
// Every successful Write or Merge is delivered to all subscriptions whose
// path overlaps the written path, including subscriptions held by the
// writing process itself. That self-delivery is what lets a single watch
// serve local-origin and remote-origin changes uniformly.
type Store interface {
	// Read returns the value at path, or nil when nothing is stored there.
	Read(ctx context.Context, path string) (any, error)

	// Write replaces the entire subtree at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error

	// Merge applies a shallow key-wise update under path, leaving sibling
	// keys untouched. Field keys may address nested children with '/'
	// (a multi-location update); nil field values delete their target.
	Merge(ctx context.Context, path string, fields map[string]any) error

	// Subscribe registers onChange for every write touching path, at path
	// or below it, or at an ancestor that replaces it. The current value is
	// delivered once before Subscribe returns. onError surfaces transport
	// trouble on the subscription; the subscription itself stays registered.
	// Callbacks run on the writer's goroutine and must not block.
	// The returned func cancels the subscription.
	Subscribe(path string, onChange func(any), onError func(error)) (func(), error)
}
