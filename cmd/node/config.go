package node

import (
	"fmt"
	"os"

	"go.miragespace.co/copper/overlay"
	"go.miragespace.co/copper/spec/chord"
	"go.miragespace.co/copper/spec/protocol"
	"go.miragespace.co/copper/util"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Config is the node's configuration file. Flags given on the command line
// take precedence over the file.
type Config struct {
	Listen         string  `yaml:"listen"`
	ID             *uint64 `yaml:"id"`
	Join           string  `yaml:"join,omitempty"`
	RingSize       uint64  `yaml:"ringSize,omitempty"`
	MaxMessageSize string  `yaml:"maxMessageSize,omitempty"`
	ListenHTTP     string  `yaml:"listenHTTP,omitempty"`
	Console        bool    `yaml:"console,omitempty"`
}

type settings struct {
	identity       protocol.Address
	bootstrap      protocol.Address
	space          chord.Space
	maxMessageSize int
	listenHTTP     string
	console        bool
}

func defaultConfig() *Config {
	return &Config{
		RingSize:       uint64(chord.DefaultSpace),
		MaxMessageSize: "64KiB",
	}
}

func readConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening config file for reading: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("error decoding config file: %w", err)
	}
	return nil
}

func configFromContext(ctx *cli.Context) (*Config, error) {
	cfg := defaultConfig()
	if ctx.IsSet("config") {
		if err := readConfigFile(ctx.Path("config"), cfg); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet("listen") || cfg.Listen == "" {
		cfg.Listen = ctx.String("listen")
	}
	if ctx.IsSet("id") {
		id := ctx.Uint64("id")
		cfg.ID = &id
	}
	if ctx.IsSet("join") {
		cfg.Join = ctx.String("join")
	}
	if ctx.IsSet("ring-size") {
		cfg.RingSize = ctx.Uint64("ring-size")
	}
	if ctx.IsSet("max-message-size") {
		cfg.MaxMessageSize = ctx.String("max-message-size")
	}
	if ctx.IsSet("listen-http") {
		cfg.ListenHTTP = ctx.String("listen-http")
	}
	if ctx.IsSet("console") {
		cfg.Console = ctx.Bool("console")
	}
	return cfg, nil
}

func (c *Config) resolve() (*settings, error) {
	if c.ID == nil {
		return nil, fmt.Errorf("ring id is required, via --id or the config file")
	}
	if c.RingSize == 0 {
		return nil, fmt.Errorf("ring size must be positive")
	}
	space := chord.Space(c.RingSize)
	if *c.ID >= uint64(space) {
		return nil, fmt.Errorf("ring id %d does not fit in a ring of size %d", *c.ID, c.RingSize)
	}

	identity, err := protocol.ParseAddress(c.Listen, *c.ID)
	if err != nil {
		return nil, fmt.Errorf("error parsing listen address: %w", err)
	}

	s := &settings{
		identity:       identity,
		space:          space,
		maxMessageSize: overlay.DefaultMaxMessageSize,
		listenHTTP:     c.ListenHTTP,
		console:        c.Console,
	}

	if c.Join != "" {
		// the bootstrap's ring id is not known and not needed
		s.bootstrap, err = protocol.ParseAddress(c.Join, 0)
		if err != nil {
			return nil, fmt.Errorf("error parsing join address: %w", err)
		}
	}

	if c.MaxMessageSize != "" {
		s.maxMessageSize, err = util.ParseByteSize(c.MaxMessageSize)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}
