package runner

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultPort              = 3000
	DefaultToolchainBin      = "cairo1-bridge"
	DefaultToolchainTimeout  = 60 * time.Second
	DefaultMaxBodyBytes      = 1 << 20
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultWebsocketPongWait = 60 * time.Second
)

// Config holds the runner service settings.
type Config struct {
	Port int

	ToolchainBin     string
	ToolchainArgs    []string
	ToolchainTimeout time.Duration
	// WorkDir is where per-run temp directories are created; "" is os.TempDir.
	WorkDir string
	// CompilerVersion overrides the version reported by the toolchain.
	CompilerVersion string

	// Cache enables the result cache. CacheDir "" keeps it in memory.
	Cache    bool
	CacheDir string

	OTLPEndpoint string

	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	// WebsocketPongWait is how long an idle websocket may go without a pong;
	// pings are sent at 9/10 of it.
	WebsocketPongWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		Port:             DefaultPort,
		ToolchainBin:     DefaultToolchainBin,
		ToolchainTimeout: DefaultToolchainTimeout,
		MaxBodyBytes:     DefaultMaxBodyBytes,
		ShutdownTimeout:  DefaultShutdownTimeout,

		WebsocketPongWait: DefaultWebsocketPongWait,
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ToolchainBin == "" {
		return errors.New("toolchain binary is required")
	}
	if c.ToolchainTimeout < 0 {
		return fmt.Errorf("negative toolchain timeout %v", c.ToolchainTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid max body size %d", c.MaxBodyBytes)
	}
	if c.WebsocketPongWait <= 0 {
		return fmt.Errorf("invalid websocket pong wait %v", c.WebsocketPongWait)
	}
	if c.CacheDir != "" && !c.Cache {
		return errors.New("cache directory set but cache disabled")
	}
	return nil
}
