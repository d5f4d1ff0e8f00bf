package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/scenegraph"
	"github.com/hupe1980/scenegraph/codec"
	"github.com/hupe1980/scenegraph/connector"
	"github.com/hupe1980/scenegraph/nearest"
	"github.com/hupe1980/scenegraph/snapshot"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate and Load for unusable configurations.
var ErrInvalid = errors.New("config: invalid")

// Semantic labels reserved for room and building nodes.
const (
	DefaultRoomLabel     uint32 = 21
	DefaultBuildingLabel uint32 = 22
)

// Config is the top-level YAML configuration of the scenegraph CLI.
type Config struct {
	Log        LogConfig         `yaml:"log"`
	Layers     LayersConfig      `yaml:"layers"`
	Rooms      RoomsConfig       `yaml:"rooms"`
	Labels     LabelsConfig      `yaml:"labels"`
	Finder     FinderConfig      `yaml:"finder"`
	Connectors []ConnectorConfig `yaml:"connectors"`
	Snapshot   SnapshotConfig    `yaml:"snapshot"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LayersConfig lists the registered layers and their symbol prefixes.
type LayersConfig struct {
	Enabled  []string          `yaml:"enabled"`
	Prefixes map[string]string `yaml:"prefixes"` // layer name -> single character
}

// RoomsConfig holds the palette rooms are coloured from.
type RoomsConfig struct {
	Palette [][3]uint8 `yaml:"palette"`
}

// LabelsConfig names semantic labels.
type LabelsConfig struct {
	Room     uint32            `yaml:"room"`
	Building uint32            `yaml:"building"`
	Names    map[uint32]string `yaml:"names"`
}

// FinderConfig tunes nearest-neighbour queries.
type FinderConfig struct {
	Backend     string `yaml:"backend"` // kdtree, flat
	Parallelism int    `yaml:"parallelism"`
}

// ConnectorConfig attaches child layers to a parent layer.
type ConnectorConfig struct {
	Parent   string   `yaml:"parent"`
	Children []string `yaml:"children"`
}

// SnapshotConfig selects where snapshots are stored and how they are encoded.
type SnapshotConfig struct {
	Store       string `yaml:"store"` // memory, local, minio, s3
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Endpoint    string `yaml:"endpoint"`
	Region      string `yaml:"region"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	UseSSL      bool   `yaml:"use_ssl"`
	Codec       string `yaml:"codec"`
	Compression string `yaml:"compression"`
}

// DefaultRoomPalette is a 12-colour qualitative palette.
var DefaultRoomPalette = [][3]uint8{
	{166, 206, 227},
	{31, 120, 180},
	{178, 223, 138},
	{51, 160, 44},
	{251, 154, 153},
	{227, 26, 28},
	{253, 191, 111},
	{255, 127, 0},
	{202, 178, 214},
	{106, 61, 154},
	{255, 255, 153},
	{177, 89, 40},
}

// Default returns a working configuration: every layer enabled, objects
// attached to places and places to rooms, snapshots in memory.
func Default() Config {
	layers := scenegraph.KnownLayers()
	enabled := make([]string, 0, len(layers))
	prefixes := make(map[string]string, len(layers))
	for _, l := range layers {
		enabled = append(enabled, l.String())
		prefixes[l.String()] = string(l.Prefix())
	}

	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Layers: LayersConfig{
			Enabled:  enabled,
			Prefixes: prefixes,
		},
		Rooms: RoomsConfig{
			Palette: DefaultRoomPalette,
		},
		Labels: LabelsConfig{
			Room:     DefaultRoomLabel,
			Building: DefaultBuildingLabel,
		},
		Finder: FinderConfig{
			Backend: nearest.BackendKDTree.String(),
		},
		Connectors: []ConnectorConfig{
			{Parent: "places", Children: []string{"objects"}},
			{Parent: "rooms", Children: []string{"places"}},
		},
		Snapshot: SnapshotConfig{
			Store:       "memory",
			Codec:       codec.Default.Name(),
			Compression: snapshot.CompressionZSTD.String(),
		},
	}
}

// Load reads path on top of Default using strict parsing. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every section that the CLI turns into library options.
func (c Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}

	if _, err := c.LayerIDs(); err != nil {
		return err
	}
	if _, err := c.Prefixes(); err != nil {
		return err
	}
	if len(c.Rooms.Palette) == 0 {
		return fmt.Errorf("%w: empty room palette", ErrInvalid)
	}

	if _, err := nearest.ParseBackend(c.Finder.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Finder.Parallelism < 0 {
		return fmt.Errorf("%w: negative finder parallelism", ErrInvalid)
	}

	layers, _ := c.LayerIDs()
	cfgs, err := c.ConnectorConfigs()
	if err != nil {
		return err
	}
	for _, cc := range cfgs {
		for _, l := range append([]scenegraph.LayerID{cc.ParentLayer}, cc.ChildLayers...) {
			if !slices.Contains(layers, l) {
				return fmt.Errorf("%w: connector uses disabled layer %s", ErrInvalid, l)
			}
		}
	}

	if _, err := codec.Lookup(c.Snapshot.Codec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := snapshot.ParseCompression(c.Snapshot.Compression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return c.Snapshot.validate()
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return level, nil
}

// Logger builds the configured logger.
func (c Config) Logger() *scenegraph.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if strings.EqualFold(c.Log.Format, "json") {
		return scenegraph.NewJSONLogger(level)
	}
	return scenegraph.NewTextLogger(level)
}

// LayerIDs returns the enabled layers. No entries means every layer.
func (c Config) LayerIDs() ([]scenegraph.LayerID, error) {
	if len(c.Layers.Enabled) == 0 {
		return scenegraph.KnownLayers(), nil
	}
	ids := make([]scenegraph.LayerID, 0, len(c.Layers.Enabled))
	seen := make(map[scenegraph.LayerID]bool, len(c.Layers.Enabled))
	for _, name := range c.Layers.Enabled {
		id, err := scenegraph.ParseLayer(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: layer %s enabled twice", ErrInvalid, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Prefixes returns the per-layer symbol prefixes. Prefixes must be single
// characters and distinct.
func (c Config) Prefixes() (map[scenegraph.LayerID]byte, error) {
	out := make(map[scenegraph.LayerID]byte, len(c.Layers.Prefixes))
	used := make(map[byte]scenegraph.LayerID, len(c.Layers.Prefixes))
	for name, p := range c.Layers.Prefixes {
		id, err := scenegraph.ParseLayer(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		if len(p) != 1 {
			return nil, fmt.Errorf("%w: prefix %q for %s must be one character", ErrInvalid, p, id)
		}
		if other, dup := used[p[0]]; dup {
			return nil, fmt.Errorf("%w: prefix %q shared by %s and %s", ErrInvalid, p, other, id)
		}
		used[p[0]] = id
		out[id] = p[0]
	}
	return out, nil
}

// ConnectorConfigs converts the connector section into connector configs.
func (c Config) ConnectorConfigs() ([]connector.Config, error) {
	out := make([]connector.Config, 0, len(c.Connectors))
	for _, cc := range c.Connectors {
		parent, err := scenegraph.ParseLayer(cc.Parent)
		if err != nil {
			return nil, fmt.Errorf("%w: connector parent: %w", ErrInvalid, err)
		}
		cfg := connector.Config{ParentLayer: parent}
		for _, name := range cc.Children {
			child, err := scenegraph.ParseLayer(name)
			if err != nil {
				return nil, fmt.Errorf("%w: connector child: %w", ErrInvalid, err)
			}
			cfg.ChildLayers = append(cfg.ChildLayers, child)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// FinderOptions returns the nearest-neighbour options for the finder section.
func (c Config) FinderOptions() []nearest.Option {
	backend, err := nearest.ParseBackend(c.Finder.Backend)
	if err != nil {
		backend = nearest.BackendKDTree
	}
	opts := []nearest.Option{nearest.WithBackend(backend)}
	if c.Finder.Parallelism > 0 {
		opts = append(opts, nearest.WithParallelism(c.Finder.Parallelism))
	}
	return opts
}

// RoomColor returns the palette colour for the i-th room. The palette wraps.
func (c Config) RoomColor(i int) [3]uint8 {
	palette := c.Rooms.Palette
	if len(palette) == 0 {
		palette = DefaultRoomPalette
	}
	i %= len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

// LabelName returns a display name for a semantic label.
func (c Config) LabelName(label uint32) string {
	if name, ok := c.Labels.Names[label]; ok {
		return name
	}
	switch label {
	case c.Labels.Room:
		return "R"
	case c.Labels.Building:
		return "B"
	default:
		return "L: " + strconv.FormatUint(uint64(label), 10)
	}
}

// SnapshotOptions returns the snapshot encoding options.
func (c Config) SnapshotOptions() []snapshot.Option {
	var opts []snapshot.Option
	if cd, err := codec.Lookup(c.Snapshot.Codec); err == nil {
		opts = append(opts, snapshot.WithCodec(cd))
	}
	if comp, err := snapshot.ParseCompression(c.Snapshot.Compression); err == nil {
		opts = append(opts, snapshot.WithCompression(comp))
	}
	return opts
}
