package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/featherforge/arcos.go/pkg/link"
	"github.com/featherforge/arcos.go/pkg/transport"
	"github.com/featherforge/arcos.go/pkg/wire"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	require.Equal(t, wire.DefaultFragmentSize, conf.Link.FragmentSize)
	require.Equal(t, link.DefaultAckTimeout, conf.Link.AckTimeout.Duration)
	require.Equal(t, link.DefaultMaxRetries, conf.Link.MaxRetries)
	require.True(t, conf.Link.Streaming)
	require.Equal(t, 10_000_000, conf.Serial.Baud)
	require.Equal(t, "bench0", conf.MQTT.Name)

	format, err := conf.Link.WireFormat()
	require.NoError(t, err)
	require.Equal(t, wire.FormatExtended, format)
}

func TestLoadFile(t *testing.T) {
	path := writeConf(t, `
[link]
format = "short"
fragment_size = 128
streaming = false
ack_timeout = "5ms"
max_retries = 7

[serial]
port = "/dev/ttyACM0"
baud = 115200
`)
	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 128, conf.Link.FragmentSize)
	require.False(t, conf.Link.Streaming)
	require.Equal(t, 5*time.Millisecond, conf.Link.AckTimeout.Duration)
	require.Equal(t, 7, conf.Link.MaxRetries)
	require.Equal(t, "/dev/ttyACM0", conf.Serial.Port)
	require.Equal(t, 115200, conf.Serial.Baud)

	format, err := conf.Link.WireFormat()
	require.NoError(t, err)
	require.Equal(t, wire.FormatShort, format)

	// Untouched sections keep their defaults.
	require.Equal(t, link.DefaultReadTimeout, conf.Link.ReadTimeout.Duration)
	require.Equal(t, "bench0", conf.MQTT.Name)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConf(t, `
[link]
ack_timeout = "soon"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"format", func(c *Config) { c.Link.Format = "cobs" }, "unknown link format"},
		{"frag-zero", func(c *Config) { c.Link.FragmentSize = 0 }, "fragment size"},
		{"frag-huge", func(c *Config) { c.Link.FragmentSize = wire.MaxExtendedPayload + 1 }, "fragment size"},
		{"retries", func(c *Config) { c.Link.MaxRetries = 0 }, "max retries"},
		{"baud", func(c *Config) { c.Serial.Baud = -1 }, "baud rate"},
	} {
		t.Run(test.name, func(t *testing.T) {
			conf := Default()
			test.mod(&conf)
			err := conf.Validate()
			require.ErrorContains(t, err, test.want)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARCOS_SERIAL_PORT", "/dev/ttyUSB3")
	t.Setenv("ARCOS_MQTT_URL", "mqtt://broker:1883/bench")
	t.Setenv("ARCOS_LINK_NAME", "cpu7")

	conf, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB3", conf.Serial.Port)
	require.Equal(t, "mqtt://broker:1883/bench", conf.MQTT.URL)
	require.Equal(t, "cpu7", conf.MQTT.Name)
}

func TestDialStreamUnconfigured(t *testing.T) {
	conf := Default()
	_, err := conf.DialStream()
	require.ErrorContains(t, err, "no transport configured")
}

func TestBuilders(t *testing.T) {
	conf := Default()
	conf.Link.Streaming = false
	conf.Link.AckTimeout = Duration{40 * time.Millisecond}
	a, b := transport.Pipe()

	client, err := conf.NewClient(a)
	require.NoError(t, err)
	require.False(t, client.Streaming)
	require.Equal(t, 40*time.Millisecond, client.AckTimeout)
	require.Equal(t, link.DefaultMaxRetries, client.MaxRetries)

	recv, err := conf.NewReceiver(b)
	require.NoError(t, err)
	require.True(t, recv.AckMode)
	require.Equal(t, link.DefaultReadTimeout, recv.Session().ReadTimeout)

	conf.Link.Format = "junk"
	_, err = conf.NewClient(a)
	require.Error(t, err)
}
