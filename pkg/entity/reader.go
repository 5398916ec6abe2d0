package entity

import (
	"reflect"

	"github.com/riverforge/statestream/pkg/storage"
	"github.com/riverforge/statestream/pkg/stream"
)

// StorageAsStateReader builds a StateReader that reads from a materialized
// table, falling back to defaultVal when the variable has never been
// written. Grounded on stateful_object.py's StorageAsStateReader.
func StorageAsStateReader(store *storage.Store) StateReader {
	return func(pk interface{}, name string, defaultVal interface{}) interface{} {
		v, err := storage.ReadAny(store, pk, name, defaultVal)
		if err != nil {
			return defaultVal
		}
		return v
	}
}

// MessageAsStateReader builds a StateReader over one already-observed
// record's changed-variable map, for the common case of constructing an
// Instance directly from the record that announced it. Only returns values
// for the matching pk; every other pk falls back to defaultVal. Grounded
// on stateful_object.py's MessageAsStateReader.
func MessageAsStateReader(pk interface{}, vars map[string]stream.Value) StateReader {
	return func(queryPK interface{}, name string, defaultVal interface{}) interface{} {
		if queryPK != pk {
			return defaultVal
		}
		v, ok := vars[name]
		if !ok {
			return defaultVal
		}
		if defaultVal != nil {
			target := reflect.New(reflect.TypeOf(defaultVal))
			if err := v.Decode(target.Interface()); err == nil {
				return target.Elem().Interface()
			}
		}
		any, err := v.Any()
		if err != nil {
			return defaultVal
		}
		return any
	}
}

// PropertiesAsStateReader builds a StateReader over a fixed property set,
// e.g. caller-supplied construction parameters for a brand-new instance.
// Grounded on stateful_object.py's PropertiesAsStateReader.
func PropertiesAsStateReader(props map[string]interface{}) StateReader {
	return func(pk interface{}, name string, defaultVal interface{}) interface{} {
		if v, ok := props[name]; ok {
			return v
		}
		return defaultVal
	}
}

// ChainReaders composes several StateReaders, returning the first result
// that differs from defaultVal, falling back to defaultVal if none do.
// Grounded on read_stateful_object's state_var_reader closure, which tries
// each of several OBJECT_STATE_READERs in turn.
func ChainReaders(readers ...StateReader) StateReader {
	return func(pk interface{}, name string, defaultVal interface{}) interface{} {
		for _, r := range readers {
			if v := r(pk, name, defaultVal); !reflect.DeepEqual(v, defaultVal) {
				return v
			}
		}
		return defaultVal
	}
}
