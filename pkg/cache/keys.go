package cache

// Keyer builds cache keys for every cached resource.
type Keyer interface {
	// SetsKey identifies the full catalog listing.
	SetsKey() string

	// SymbologyKey identifies the symbol catalog.
	SymbologyKey() string

	// AssetKey identifies a remote asset by its reference.
	AssetKey(ref string) string

	// HTTPKey identifies a raw HTTP response.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key builder.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SetsKey returns the key for the catalog listing.
func (DefaultKeyer) SetsKey() string { return "catalog:sets" }

// SymbologyKey returns the key for the symbol catalog.
func (DefaultKeyer) SymbologyKey() string { return "catalog:symbology" }

// AssetKey returns the SHA-256 of ref, usable directly as a file name.
func (DefaultKeyer) AssetKey(ref string) string { return Hash([]byte(ref)) }

// HTTPKey returns a namespaced key for an HTTP response.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return hashKey("http", namespace, key)
}

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one second-level backend without colliding.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SetsKey returns the prefixed catalog listing key.
func (k *ScopedKeyer) SetsKey() string { return k.prefix + k.inner.SetsKey() }

// SymbologyKey returns the prefixed symbol catalog key.
func (k *ScopedKeyer) SymbologyKey() string { return k.prefix + k.inner.SymbologyKey() }

// AssetKey hashes the prefixed reference so the result stays a valid file name.
func (k *ScopedKeyer) AssetKey(ref string) string { return k.inner.AssetKey(k.prefix + ref) }

// HTTPKey returns the prefixed HTTP key.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
