package cache

// ScopedKeyer wraps a Keyer with a prefix so that several exporters can
// share one backend without seeing each other's entries.
//
// Example usage:
//
//	// Keys for the staging tenant
//	staging := NewScopedKeyer(NewDefaultKeyer(), "tenant:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DescriptorKey generates a prefixed descriptor key.
func (k *ScopedKeyer) DescriptorKey(source, typeName string) string {
	return k.prefix + k.inner.DescriptorKey(source, typeName)
}

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(source, typeName, id string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(source, typeName, id, opts)
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(stackHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(stackHash, opts)
}
