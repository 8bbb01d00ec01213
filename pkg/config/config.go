// Package config loads bench and link settings from TOML files with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/featherforge/arcos.go/pkg/link"
	"github.com/featherforge/arcos.go/pkg/transport"
	"github.com/featherforge/arcos.go/pkg/transport/mqtt"
	"github.com/featherforge/arcos.go/pkg/transport/serial"
	"github.com/featherforge/arcos.go/pkg/transport/ws"
	"github.com/featherforge/arcos.go/pkg/wire"
)

// Duration decodes TOML strings like "2ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the root of a bench configuration file.
type Config struct {
	Link   Link   `toml:"link"`
	Serial Serial `toml:"serial"`
	MQTT   MQTT   `toml:"mqtt"`
	WS     WS     `toml:"ws"`
}

// Link tunes the protocol engine.
type Link struct {
	Format       string   `toml:"format"`
	FragmentSize int      `toml:"fragment_size"`
	Streaming    bool     `toml:"streaming"`
	AckTimeout   Duration `toml:"ack_timeout"`
	MaxRetries   int      `toml:"max_retries"`
	ReadTimeout  Duration `toml:"read_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"`
	PingTimeout  Duration `toml:"ping_timeout"`
}

// Serial selects the UART transport.
type Serial struct {
	Port string `toml:"port"`
	Baud int    `toml:"baud"`
}

// MQTT selects the broker bridge transport.
type MQTT struct {
	URL  string `toml:"url"`
	Name string `toml:"name"`
}

// WS selects the websocket bridge transport.
type WS struct {
	URL    string `toml:"url"`
	Origin string `toml:"origin"`
}

// Default returns the firmware-matched defaults.
func Default() Config {
	return Config{
		Link: Link{
			Format:       "extended",
			FragmentSize: wire.DefaultFragmentSize,
			Streaming:    true,
			AckTimeout:   Duration{link.DefaultAckTimeout},
			MaxRetries:   link.DefaultMaxRetries,
			ReadTimeout:  Duration{link.DefaultReadTimeout},
			IdleTimeout:  Duration{link.DefaultIdleTimeout},
			PingTimeout:  Duration{link.DefaultPingTimeout},
		},
		Serial: Serial{Baud: serial.DefaultBaud},
		MQTT:   MQTT{Name: "bench0"},
	}
}

// Load reads the TOML file over the defaults. An empty path loads
// defaults only. ARCOS_* environment variables override both.
func Load(path string) (Config, error) {
	conf := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &conf); err != nil {
			return conf, err
		}
	}
	conf.applyEnv()
	if err := conf.Validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ARCOS_SERIAL_PORT"); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv("ARCOS_MQTT_URL"); v != "" {
		c.MQTT.URL = v
	}
	if v := os.Getenv("ARCOS_WS_URL"); v != "" {
		c.WS.URL = v
	}
	if v := os.Getenv("ARCOS_LINK_NAME"); v != "" {
		c.MQTT.Name = v
	}
}

// Validate rejects values the engine can't run with.
func (c *Config) Validate() error {
	if _, err := c.Link.WireFormat(); err != nil {
		return err
	}
	if n := c.Link.FragmentSize; n <= 0 || n > wire.MaxExtendedPayload {
		return fmt.Errorf("fragment size %d out of range (1..%d)", n, wire.MaxExtendedPayload)
	}
	if c.Link.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("baud rate %d out of range", c.Serial.Baud)
	}
	return nil
}

// WireFormat resolves the configured format name.
func (l Link) WireFormat() (wire.Format, error) {
	switch l.Format {
	case "", "extended":
		return wire.FormatExtended, nil
	case "short":
		return wire.FormatShort, nil
	}
	return 0, fmt.Errorf("unknown link format %q", l.Format)
}

// DialStream opens the configured transport, serial port first, then
// MQTT, then websocket.
func (c *Config) DialStream() (transport.Stream, error) {
	switch {
	case c.Serial.Port != "":
		return serial.Open(c.Serial.Port, c.Serial.Baud)
	case c.MQTT.URL != "":
		return mqtt.Dial(c.MQTT.URL, c.MQTT.Name)
	case c.WS.URL != "":
		return ws.Dial(c.WS.URL, c.WS.Origin)
	}
	return nil, fmt.Errorf("no transport configured")
}

// NewSession builds a session over the stream per this config.
func (c *Config) NewSession(stream transport.Stream) (*link.Session, error) {
	format, err := c.Link.WireFormat()
	if err != nil {
		return nil, err
	}
	s := link.NewSession(stream, format, c.Link.FragmentSize)
	if c.Link.ReadTimeout.Duration > 0 {
		s.ReadTimeout = c.Link.ReadTimeout.Duration
	}
	if c.Link.IdleTimeout.Duration > 0 {
		s.IdleTimeout = c.Link.IdleTimeout.Duration
	}
	return s, nil
}

// NewClient builds the frame-producing side over the stream.
func (c *Config) NewClient(stream transport.Stream) (*link.Client, error) {
	session, err := c.NewSession(stream)
	if err != nil {
		return nil, err
	}
	client := link.NewClient(session)
	client.Streaming = c.Link.Streaming
	client.AckTimeout = c.Link.AckTimeout.Duration
	client.MaxRetries = c.Link.MaxRetries
	return client, nil
}

// NewReceiver builds the display side over the stream. Acked delivery
// follows from streaming being off.
func (c *Config) NewReceiver(stream transport.Stream) (*link.Receiver, error) {
	session, err := c.NewSession(stream)
	if err != nil {
		return nil, err
	}
	recv := link.NewReceiver(session)
	recv.AckMode = !c.Link.Streaming
	return recv, nil
}
