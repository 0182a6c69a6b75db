package cache

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a [Manager].
type Options struct {
	// Dir is the root directory; assets live in Dir/assets.
	Dir string

	MetadataTTL      time.Duration
	MetadataCapacity int
	StaleTTL         time.Duration

	// AssetMaxBytes caps the asset tier. 0 means unbounded.
	AssetMaxBytes int64

	// Backend is an optional second level for the metadata tier.
	Backend Cache

	// Namespace prefixes every key when set.
	Namespace string

	Logger *log.Logger
}

// Manager owns the metadata and asset tiers. It is safe for concurrent use
// and is meant to be created once per process and passed to collaborators.
type Manager struct {
	Metadata *MetadataCache
	Assets   *AssetCache
	Keyer    Keyer
}

// NewManager creates both tiers.
func NewManager(opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	assets, err := NewAssetCache(filepath.Join(opts.Dir, "assets"), AssetOptions{
		MaxBytes: opts.AssetMaxBytes,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	keyer := NewDefaultKeyer()
	if opts.Namespace != "" {
		keyer = NewScopedKeyer(keyer, opts.Namespace)
	}
	return &Manager{
		Metadata: NewMetadataCache(MetadataOptions{
			TTL:      opts.MetadataTTL,
			Capacity: opts.MetadataCapacity,
			StaleTTL: opts.StaleTTL,
			Backend:  opts.Backend,
			Logger:   opts.Logger,
		}),
		Assets: assets,
		Keyer:  keyer,
	}, nil
}

// TierReport describes one tier.
type TierReport struct {
	StatsSnapshot
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes,omitempty"`
}

// Report is the combined state of both tiers.
type Report struct {
	Metadata TierReport `json:"metadata"`
	Assets   TierReport `json:"assets"`
}

// Report returns counters and sizes for both tiers.
func (m *Manager) Report() Report {
	r := Report{
		Metadata: TierReport{StatsSnapshot: m.Metadata.Stats().Snapshot(), Entries: m.Metadata.Len()},
		Assets:   TierReport{StatsSnapshot: m.Assets.Stats().Snapshot()},
	}
	if n, size, err := m.Assets.Usage(); err == nil {
		r.Assets.Entries, r.Assets.Bytes = n, size
	}
	return r
}

// ResetStats zeroes the counters of both tiers.
func (m *Manager) ResetStats() {
	m.Metadata.Stats().Reset()
	m.Assets.Stats().Reset()
}

// Clear empties the in-memory tier and deletes every stored asset.
// It returns the number of assets removed.
func (m *Manager) Clear() (int, error) {
	m.Metadata.Clear()
	return m.Assets.Clear()
}

// Close releases the metadata backend.
func (m *Manager) Close() error {
	return m.Metadata.Close()
}
