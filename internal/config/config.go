package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// ConfigFileName is looked up in the directory passed to Load.
const ConfigFileName = "aircraft.cfg.json"

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"-" mapstructure:"-"`
}

// MemoryConfig holds in-memory storage backend settings. When SnapshotPath is
// set the backend restores from it on Init and writes it back on Close.
type MemoryConfig struct {
	SnapshotPath   string `json:"snapshotPath" mapstructure:"snapshotPath"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	InMemory     bool          `json:"inMemory" mapstructure:"inMemory"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds connection settings read from the db.* keys
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DSN returns the libpq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// HangarConfig holds the placement constants used by the design and
// selection flows
type HangarConfig struct {
	PlatformY        int
	Radius           int
	Spawn            core.Position
	DesignOriginY    int
	SilhouetteLiftY  int
	RecordSilhouette bool
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// GraylogConfig holds GELF output settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// StreamConfig holds the build-event WebSocket settings
type StreamConfig struct {
	Enabled bool
	URL     string
	Secret  string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults sets default values without reading a file.
func LoadDefaults() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./aircraftlogs")

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.memory.snapshotPath", "")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./aircrafts.db")
	viper.SetDefault("storage.sqlite.inMemory", false)
	viper.SetDefault("storage.sqlite.dumpInterval", "0s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "aircraft")

	viper.SetDefault("hangar.platformY", 64)
	viper.SetDefault("hangar.radius", 20)
	viper.SetDefault("hangar.spawn", []int{0, 65, 0})
	viper.SetDefault("host.materials", []string{})
	viper.SetDefault("design.originY", 70)
	viper.SetDefault("silhouette.liftY", 5)
	viper.SetDefault("silhouette.record", false)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "aircraft-metrics")
	viper.SetDefault("influx.bucket", "aircraft")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5000/api/aircraft")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "aircraft")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage.* and db.* settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			SnapshotPath:   viper.GetString("storage.memory.snapshotPath"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			InMemory:     viper.GetBool("storage.sqlite.inMemory"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetHangarConfig returns the placement constants. A malformed hangar.spawn
// falls back to one block above the platform at the world origin.
func GetHangarConfig() HangarConfig {
	platformY := viper.GetInt("hangar.platformY")
	spawn := core.Position{X: 0, Y: platformY + 1, Z: 0}
	if s := viper.GetIntSlice("hangar.spawn"); len(s) == 3 {
		spawn = core.Position{X: s[0], Y: s[1], Z: s[2]}
	}

	return HangarConfig{
		PlatformY:        platformY,
		Radius:           viper.GetInt("hangar.radius"),
		Spawn:            spawn,
		DesignOriginY:    viper.GetInt("design.originY"),
		SilhouetteLiftY:  viper.GetInt("silhouette.liftY"),
		RecordSilhouette: viper.GetBool("silhouette.record"),
	}
}

// GetOTelConfig returns the otel.* settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the influx.* settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the graylog.* settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetStreamConfig returns the stream.* settings.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		Enabled: viper.GetBool("stream.enabled"),
		URL:     viper.GetString("stream.url"),
		Secret:  viper.GetString("stream.secret"),
	}
}
