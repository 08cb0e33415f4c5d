package config

import (
	"strconv"
	"strings"
	"time"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// EnvPrefix prefixes every override variable.
const EnvPrefix = "SPUTNIK_"

type envSetter func(c *Config, v string) error

var envOverrides = map[string]envSetter{
	"DEBUG":           func(c *Config, v string) error { return setBool(&c.Debug.Enabled, v) },
	"CAMERA_SOURCE":   func(c *Config, v string) error { c.Camera.Source = v; return nil },
	"CAMERA_DEVICE":   func(c *Config, v string) error { return setInt(&c.Camera.Device, v) },
	"CAMERA_REPLAY":   func(c *Config, v string) error { c.Camera.ReplayDir = v; return nil },
	"SERIAL_PORT":     func(c *Config, v string) error { c.Serial.Port = v; return nil },
	"SERIAL_BAUD":     func(c *Config, v string) error { return setInt(&c.Serial.Baud, v) },
	"RELAY_COOLDOWN":  func(c *Config, v string) error { return setDuration(&c.Relay.Cooldown, v) },
	"RELAY_HEARTBEAT": func(c *Config, v string) error { return setInt(&c.Relay.HeartbeatEvery, v) },
	"TELEMETRY_PORTS": func(c *Config, v string) error { c.Telemetry.Ports = splitList(v); return nil },
	"HTTP_ADDR":       func(c *Config, v string) error { c.HTTP.Addr = v; return nil },
	"JOURNAL_PATH":    func(c *Config, v string) error { c.Journal.Path = v; c.Journal.Enabled = v != ""; return nil },
	"UI":              func(c *Config, v string) error { return setBool(&c.UI.Enabled, v) },
}

// ApplyEnv applies SPUTNIK_* overrides found through lookup.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	for key, set := range envOverrides {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		if err := set(c, strings.TrimSpace(v)); err != nil {
			return errs.Wrap(errs.KindConfig, "env", EnvPrefix+key, err)
		}
	}
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setDuration(dst *Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = Duration(d)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
