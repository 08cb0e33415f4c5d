package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

func TestDefaultConfig_MatchesRelayContract(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "/dev/ttyUSB0", c.Serial.Port)
	assert.Equal(t, 9600, c.Serial.Baud)
	assert.Equal(t, time.Second, c.Serial.ReadTimeout.Std())
	assert.Equal(t, 2*time.Second, c.Serial.Settle.Std())
	assert.Equal(t, 5*time.Second, c.Relay.Cooldown.Std())
	assert.Equal(t, 900, c.Relay.HeartbeatEvery)
	assert.Equal(t, 64, c.Relay.ChunkSize)
	assert.Equal(t, 70, c.Relay.JPEGQuality)
	assert.Equal(t, 0.01, c.Detection.MinAreaRatio)
	assert.Equal(t, 0.6, c.Detection.MaxAreaRatio)
	require.NoError(t, c.Validate())
}

func TestValidate_ClampsInvalidValues(t *testing.T) {
	c := DefaultConfig()
	c.Camera.Source = "webcam"
	c.Detection.MaxAreaRatio = 0.001
	c.Detection.SaturationMax = 400
	c.Detection.BlurKernel = 4
	c.Relay.ChunkSize = 0
	c.Relay.JPEGQuality = 0
	c.Telemetry.Ports = nil
	require.NoError(t, c.Validate())

	d := DefaultConfig()
	assert.Equal(t, "camera", c.Camera.Source)
	assert.Equal(t, d.Detection.MaxAreaRatio, c.Detection.MaxAreaRatio)
	assert.Equal(t, d.Detection.SaturationMax, c.Detection.SaturationMax)
	assert.Equal(t, 5, c.Detection.BlurKernel)
	assert.Equal(t, 64, c.Relay.ChunkSize)
	assert.Equal(t, 70, c.Relay.JPEGQuality)
	assert.Equal(t, d.Telemetry.Ports, c.Telemetry.Ports)
}

func TestValidate_NonPositiveCooldownMeansDefault(t *testing.T) {
	for _, cd := range []time.Duration{0, -time.Second} {
		c := DefaultConfig()
		c.Relay.Cooldown = Duration(cd)
		require.NoError(t, c.Validate())
		assert.Equal(t, 5*time.Second, c.Relay.Cooldown.Std(), "cooldown %v", cd)
	}

	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("relay:\n  cooldown: 0s\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Relay.Cooldown.Std())
}

func TestValidate_ReplayNeedsDirectory(t *testing.T) {
	c := DefaultConfig()
	c.Camera.Source = "replay"
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfig))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Serial, c.Serial)
}

func TestSaveLoad_JSONAndYAML(t *testing.T) {
	for _, name := range []string{"cfg.json", "cfg.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			c := DefaultConfig()
			c.Serial.Port = "/dev/ttyACM1"
			c.Relay.Cooldown = Duration(3 * time.Second)
			c.Relay.HeartbeatEvery = 300
			require.NoError(t, c.Save(path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "/dev/ttyACM1", got.Serial.Port)
			assert.Equal(t, 3*time.Second, got.Relay.Cooldown.Std())
			assert.Equal(t, 300, got.Relay.HeartbeatEvery)
		})
	}
}

func TestLoad_YAMLAcceptsBareSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	doc := "relay:\n  cooldown: 7\n  heartbeat_every: 450\nserial:\n  read_timeout: 500ms\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, c.Relay.Cooldown.Std())
	assert.Equal(t, 450, c.Relay.HeartbeatEvery)
	assert.Equal(t, 500*time.Millisecond, c.Serial.ReadTimeout.Std())
	// Untouched sections keep their defaults.
	assert.Equal(t, 9600, c.Serial.Baud)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfig))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SPUTNIK_SERIAL_PORT":     "/dev/ttyS3",
		"SPUTNIK_RELAY_COOLDOWN":  "2s",
		"SPUTNIK_TELEMETRY_PORTS": "/dev/a, /dev/b,,",
		"SPUTNIK_UI":              "true",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	c := DefaultConfig()
	require.NoError(t, ApplyEnv(c, lookup))
	assert.Equal(t, "/dev/ttyS3", c.Serial.Port)
	assert.Equal(t, 2*time.Second, c.Relay.Cooldown.Std())
	assert.Equal(t, []string{"/dev/a", "/dev/b"}, c.Telemetry.Ports)
	assert.True(t, c.UI.Enabled)

	env["SPUTNIK_SERIAL_BAUD"] = "fast"
	err := ApplyEnv(DefaultConfig(), lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPUTNIK_SERIAL_BAUD")
}
