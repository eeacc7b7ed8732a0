package decompose

import (
	"strings"
	"time"

	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// deriveKey picks the natural key of n and rewrites n.Data accordingly:
//
//   - the first unique column holding a usable value wins and the primary
//     key is dropped
//   - if unique columns exist but none is usable, "<type>_<pk>" is written
//     to the first one and the primary key is dropped
//   - otherwise the primary key is the key
func deriveKey(desc *schema.Descriptor, n *Node) error {
	pk, ok := desc.PrimaryColumn()
	if !ok {
		return errors.New(errors.ErrCodeInvalidDescriptor, "%s: no primary column", desc.Target)
	}
	uniq := desc.UniqueColumns()
	if len(uniq) == 0 {
		n.KeyProp, n.KeyValue = pk.Property, n.id.key
		return nil
	}

	for _, c := range uniq {
		v, _ := n.Data.Get(c.Property)
		if entity.IsUsableKey(v) {
			s, _ := entity.FormatScalar(v)
			n.Data.Delete(pk.Property)
			n.KeyProp, n.KeyValue = c.Property, s
			return nil
		}
	}

	target := uniq[0].Property
	if v, _ := n.Data.Get(target); !replaceable(v) {
		return errors.New(errors.ErrCodeAmbiguousKey,
			"%s(%s): no usable unique key and %q holds %T", n.Type, n.id.key, target, v)
	}
	synth := strings.ToLower(desc.Target) + "_" + n.id.key
	n.Data.Set(target, synth)
	n.Data.Delete(pk.Property)
	n.KeyProp, n.KeyValue = target, synth
	return nil
}

// replaceable reports whether a unique column may be overwritten with a
// synthesized key: it is unset, an empty string or a zero number.
func replaceable(v any) bool {
	switch v.(type) {
	case nil, string:
		return true
	case bool, time.Time, *time.Time, entity.Ref:
		return false
	}
	return entity.IsScalar(v) && !entity.IsUsableKey(v)
}
