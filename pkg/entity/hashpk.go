package entity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// PKer is implemented by values that stand in for their own primary key
// when hashed, mirroring gs_framework's PkMixin.
type PKer interface {
	PK() interface{}
}

// HashPK derives a stable identifier for className constructed from the
// given fields, for entities whose primary key is computed from their
// constructor arguments rather than assigned externally.
//
// Grounded on instance_hash_calculation.py's HashCalculation.calc_inst_hash,
// simplified: the source introspects __init__'s signature via
// inspect.getfullargspec to recover argument names and defaults at call
// time, which has no equivalent in Go. Here the caller supplies the field
// map directly; determinism comes from sorting field names before hashing,
// same as the source's sorted(all_para_values.items()).
func HashPK(className string, fields map[string]interface{}) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, hashValue(fields[name])))
	}

	str := fmt.Sprintf("%s(%s)", className, strings.Join(parts, ","))
	sum := md5.Sum([]byte(str))
	return hex.EncodeToString(sum[:])
}

func hashValue(v interface{}) string {
	switch t := v.(type) {
	case PKer:
		return hashValue(t.PK())
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s:%s", k, hashValue(t[k]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = hashValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []string:
		sorted := append([]string(nil), t...)
		sort.Strings(sorted)
		return "[" + strings.Join(sorted, ",") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
