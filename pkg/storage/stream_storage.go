package storage

import (
	"context"

	"github.com/riverforge/statestream/pkg/slog"
	"github.com/riverforge/statestream/pkg/statevar"
	"github.com/riverforge/statestream/pkg/stream"
)

// TransformResult is a transformer's per-variable verdict: the value to
// apply (possibly renamed or derived from the original), and whether it
// should be excluded from persistence (memory_only), matching
// StateStreamStorage.TransformedResult(value, memory_only).
type TransformResult struct {
	Value      stream.Value
	MemoryOnly bool
}

// Transformer selects, renames, or derives the variables a StreamStorage
// persists and forwards, given the raw changed-variable map a Stream
// observed. A nil Transformer is a passthrough keyed by each variable's own
// declared memory-only flag. Grounded on state_storage.py's
// STATEFUL_STATE_TRANSFORMER / do_transform.
type Transformer func(store *Store, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) (map[string]TransformResult, error)

// StreamStorage observes a Stream's records, writes the persisted subset
// into a Store, and forwards the full (or transformed) set to a downstream
// observer -- optionally routed through an in-memory Stream first, so a
// slow downstream consumer never blocks the storage write path. Grounded
// on state_storage.py's StateStreamStorage.
type StreamStorage struct {
	store       *Store
	memoryOnly  map[string]bool
	transformer Transformer
	downstream  stream.Observer
	forward     *stream.Stream
	logger      *slog.Logger
}

// New builds a StreamStorage writing into store. vars is the owning
// entity's flattened schema, used to look up each variable's declared
// memory-only flag (both by its fully-qualified name and by its short
// alias, mirroring pkg/dispatcher's alias expansion) when no Transformer is
// supplied.
func New(store *Store, vars []*statevar.Variable, logger *slog.Logger) *StreamStorage {
	memoryOnly := make(map[string]bool, len(vars)*2)
	for _, v := range vars {
		memoryOnly[v.Name()] = v.MemoryOnlyFlag()
		if short := shortName(v.Name()); short != v.Name() {
			memoryOnly[short] = v.MemoryOnlyFlag()
		}
	}
	return &StreamStorage{store: store, memoryOnly: memoryOnly, logger: logger}
}

// WithTransformer installs a custom selection/derivation transformer.
func (ss *StreamStorage) WithTransformer(t Transformer) *StreamStorage {
	ss.transformer = t
	return ss
}

// WithDownstream installs the observer notified (directly, or via the
// forwarding stream if WithForwarding was used) after each record is
// persisted.
func (ss *StreamStorage) WithDownstream(o stream.Observer) *StreamStorage {
	ss.downstream = o
	return ss
}

// WithForwarding routes the downstream notification through fwd (normally
// bound to an in-memory broker) instead of calling the downstream observer
// inline, so a slow or blocking downstream consumer cannot stall the
// storage write path for other records. Grounded on state_storage.py's
// forward_through_in_mem_channel mode.
func (ss *StreamStorage) WithForwarding(fwd *stream.Stream) *StreamStorage {
	ss.forward = fwd
	return ss
}

// Observer returns the stream.Observer to pass to the owning Stream's
// Observe call.
func (ss *StreamStorage) Observer() stream.Observer {
	return func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		toSave, toObserve, err := ss.transform(pk, changed, headers, pkBytes)
		if err != nil {
			return err
		}

		for name, v := range toSave {
			if err := ss.store.WriteRaw(pk, name, v.Raw()); err != nil {
				if ss.logger != nil {
					ss.logger.Error("storage: write %s for pk %v failed: %v", name, pk, err)
				}
			}
		}

		if len(toObserve) == 0 {
			return nil
		}

		if ss.forward != nil {
			asAny := make(map[string]interface{}, len(toObserve))
			for name, v := range toObserve {
				val, verr := v.Any()
				if verr != nil {
					return verr
				}
				asAny[name] = val
			}
			return ss.forward.Upsert(ctx, pk, asAny, headers)
		}

		if ss.downstream != nil {
			return ss.downstream(ctx, pk, toObserve, headers, pkBytes)
		}
		return nil
	}
}

func (ss *StreamStorage) transform(pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) (map[string]stream.Value, map[string]stream.Value, error) {
	if ss.transformer == nil {
		toSave := make(map[string]stream.Value, len(changed))
		for name, v := range changed {
			if !ss.memoryOnly[name] {
				toSave[name] = v
			}
		}
		return toSave, changed, nil
	}

	result, err := ss.transformer(ss.store, pk, changed, headers, pkBytes)
	if err != nil {
		return nil, nil, err
	}
	toSave := make(map[string]stream.Value, len(result))
	toObserve := make(map[string]stream.Value, len(result))
	for name, r := range result {
		toObserve[name] = r.Value
		if !r.MemoryOnly {
			toSave[name] = r.Value
		}
	}
	return toSave, toObserve, nil
}

func shortName(fqName string) string {
	for i := len(fqName) - 1; i >= 0; i-- {
		if fqName[i] == '.' {
			return fqName[i+1:]
		}
	}
	return fqName
}
