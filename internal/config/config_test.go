package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/pkg/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./aircraftlogs", viper.GetString("logsDir"))
	assert.Equal(t, "sqlite", viper.GetString("storage.type"))
	assert.Equal(t, "./aircrafts.db", viper.GetString("storage.sqlite.path"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "aircraft", viper.GetString("db.database"))
	assert.Equal(t, 64, viper.GetInt("hangar.platformY"))
	assert.Equal(t, 20, viper.GetInt("hangar.radius"))
	assert.Equal(t, 70, viper.GetInt("design.originY"))
	assert.Empty(t, viper.GetStringSlice("host.materials"))
	assert.Equal(t, 5, viper.GetInt("silhouette.liftY"))
	assert.Equal(t, false, viper.GetBool("silhouette.record"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "aircraft", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "sqlite", cfg.Type)
	assert.Equal(t, "./aircrafts.db", cfg.SQLite.Path)
	assert.False(t, cfg.SQLite.InMemory)
	assert.Equal(t, time.Duration(0), cfg.SQLite.DumpInterval)
	assert.Equal(t, "", cfg.Memory.SnapshotPath)
	assert.True(t, cfg.Memory.CompressOutput)
	assert.Equal(t, "postgres", cfg.Postgres.Username)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "memory",
			"memory": { "snapshotPath": "/tmp/aircraft.json", "compressOutput": false },
			"sqlite": { "inMemory": true, "dumpInterval": "10m" }
		},
		"db": { "host": "db.internal", "database": "hangars" }
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "memory", sc.Type)
	assert.Equal(t, "/tmp/aircraft.json", sc.Memory.SnapshotPath)
	assert.False(t, sc.Memory.CompressOutput)
	assert.True(t, sc.SQLite.InMemory)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
	assert.Equal(t, "db.internal", sc.Postgres.Host)
	assert.Equal(t, "hangars", sc.Postgres.Database)
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "h", Port: "1", Username: "u", Password: "p", Database: "d"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}

func TestGetHangarConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	hc := GetHangarConfig()
	assert.Equal(t, 64, hc.PlatformY)
	assert.Equal(t, 20, hc.Radius)
	assert.Equal(t, core.Position{X: 0, Y: 65, Z: 0}, hc.Spawn)
	assert.Equal(t, 70, hc.DesignOriginY)
	assert.Equal(t, 5, hc.SilhouetteLiftY)
	assert.False(t, hc.RecordSilhouette)
}

func TestGetHangarConfig_SpawnFromFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"hangar": { "platformY": 100, "spawn": [3, 101, -3] },
		"silhouette": { "record": true }
	}`)
	require.NoError(t, Load(dir))

	hc := GetHangarConfig()
	assert.Equal(t, 100, hc.PlatformY)
	assert.Equal(t, core.Position{X: 3, Y: 101, Z: -3}, hc.Spawn)
	assert.True(t, hc.RecordSilhouette)
}

func TestGetHangarConfig_MalformedSpawn(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()
	viper.Set("hangar.platformY", 10)
	viper.Set("hangar.spawn", []int{1, 2})

	assert.Equal(t, core.Position{X: 0, Y: 11, Z: 0}, GetHangarConfig().Spawn)
}

func TestGetOTelConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()
	viper.Set("otel.enabled", true)
	viper.Set("otel.endpoint", "collector:4318")

	oc := GetOTelConfig()
	assert.True(t, oc.Enabled)
	assert.Equal(t, "aircraft", oc.ServiceName)
	assert.Equal(t, 5*time.Second, oc.BatchTimeout)
	assert.Equal(t, "collector:4318", oc.Endpoint)
	assert.True(t, oc.Insecure)
}

func TestGetInfluxAndGraylogConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	ic := GetInfluxConfig()
	assert.False(t, ic.Enabled)
	assert.Equal(t, "aircraft", ic.Bucket)
	assert.Equal(t, "http", ic.Protocol)

	gc := GetGraylogConfig()
	assert.False(t, gc.Enabled)
	assert.Equal(t, "localhost:12201", gc.Address)
}

func TestGetStreamConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{"stream": {"enabled": true, "secret": "s3cret"}}`)
	require.NoError(t, Load(dir))

	sc := GetStreamConfig()
	assert.True(t, sc.Enabled)
	assert.Equal(t, "ws://localhost:5000/api/aircraft", sc.URL)
	assert.Equal(t, "s3cret", sc.Secret)
}
