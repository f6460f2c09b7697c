package roadnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
	"github.com/NERVsystems/fuelmcp/pkg/osm"
	"github.com/NERVsystems/fuelmcp/pkg/tracing"
)

// DefaultMemoryTTL is how long a loaded network stays in memory before the
// next access rereads it from disk.
const DefaultMemoryTTL = time.Hour

// regionPattern restricts region names to filename-safe characters, since
// the region becomes part of the cache file path.
var regionPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// networkFile is the on-disk JSON schema for a cached network.
type networkFile struct {
	Nodes      map[int64]*Node `json:"nodes"`
	Edges      []*Edge         `json:"edges"`
	BBox       geo.BoundingBox `json:"bbox"`
	LastUpdate time.Time       `json:"last_update"`
	Stats      Stats           `json:"stats"`
}

// Manager loads, builds and persists road networks per region. Disk is the
// durable store; a TTL cache keeps recently used networks in memory.
type Manager struct {
	dir     string
	options BuildOptions

	mu     sync.Mutex
	memory *osm.TTLCache[string, *Network]
}

// NewManager creates a manager that caches networks under dir.
func NewManager(dir string, options BuildOptions) *Manager {
	return &Manager{
		dir:     dir,
		options: options,
		memory:  osm.NewTTLCache[string, *Network](DefaultMemoryTTL),
	}
}

// CachePath returns the cache file path for a region.
func (m *Manager) CachePath(region string) string {
	return filepath.Join(m.dir, region+"_road_network.json")
}

// CacheExists reports whether a cached network file exists for the region.
func (m *Manager) CacheExists(region string) bool {
	if err := validateRegion(region); err != nil {
		return false
	}
	_, err := os.Stat(m.CachePath(region))
	return err == nil
}

func validateRegion(region string) error {
	if !regionPattern.MatchString(region) {
		return fmt.Errorf("invalid region name %q: use letters, digits, '-' and '_'", region)
	}
	return nil
}

// Load returns the cached network for a region, from memory if fresh,
// otherwise from disk. A missing cache file surfaces as os.ErrNotExist.
func (m *Manager) Load(ctx context.Context, region string) (*Network, error) {
	if err := validateRegion(region); err != nil {
		return nil, err
	}

	if network, ok := m.memory.Get(region); ok {
		tracing.SetAttributes(ctx,
			tracing.CacheAttributes(tracing.CacheTypeNetwork, true, region)...)
		return network, nil
	}
	tracing.SetAttributes(ctx,
		tracing.CacheAttributes(tracing.CacheTypeNetwork, false, region)...)

	data, err := os.ReadFile(m.CachePath(region))
	if err != nil {
		return nil, fmt.Errorf("reading road network cache for %q: %w", region, err)
	}

	var file networkFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing road network cache for %q: %w", region, err)
	}

	network := &Network{
		Nodes:   file.Nodes,
		Edges:   file.Edges,
		BBox:    file.BBox,
		BuiltAt: file.LastUpdate,
	}
	if network.Nodes == nil {
		network.Nodes = make(map[int64]*Node)
	}
	network.ensureIndex()

	m.memory.Set(region, network)
	slog.Default().Info("road network loaded from disk",
		"region", region,
		"nodes", len(network.Nodes),
		"edges", len(network.Edges),
		"built_at", network.BuiltAt)
	return network, nil
}

// Save persists a network to the region's cache file.
func (m *Manager) Save(region string, network *Network) error {
	if err := validateRegion(region); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	file := networkFile{
		Nodes:      network.Nodes,
		Edges:      network.Edges,
		BBox:       network.BBox,
		LastUpdate: network.BuiltAt,
		Stats:      network.Stats(),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding road network: %w", err)
	}
	if err := os.WriteFile(m.CachePath(region), data, 0o644); err != nil {
		return fmt.Errorf("writing road network cache: %w", err)
	}
	return nil
}

// Build constructs the network for a bounding box, persists it and primes
// the memory cache. Any previous cache for the region is replaced.
func (m *Manager) Build(ctx context.Context, region string, bbox geo.BoundingBox) (*Network, error) {
	if err := validateRegion(region); err != nil {
		return nil, err
	}

	network, err := BuildNetwork(ctx, bbox, m.options)
	if err != nil {
		return nil, err
	}
	if err := m.Save(region, network); err != nil {
		return nil, err
	}
	m.memory.Set(region, network)
	return network, nil
}

// LoadOrBuild returns the cached network for a region, building it when no
// cache exists yet. Concurrent callers for the same manager serialize so a
// region is only downloaded once.
func (m *Manager) LoadOrBuild(ctx context.Context, region string, bbox geo.BoundingBox) (*Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	network, err := m.Load(ctx, region)
	if err == nil {
		return network, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return m.Build(ctx, region, bbox)
}
