// Package config handles loading tinysynth's runtime configuration
// from a config file, with optional hot-reload. Environment variables
// are not consulted.
package config

import (
	"context"
	"errors"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds every tunable the CLI and library wiring need at
// startup (and, for MasterVolume/MaxVoices, while running).
type Config struct {
	SoundfontPath  string  `mapstructure:"SoundfontPath"`
	SampleRate     int     `mapstructure:"SampleRate"`
	Stereo         bool    `mapstructure:"Stereo"`
	MasterVolume   float64 `mapstructure:"MasterVolume"`
	MaxVoices      int     `mapstructure:"MaxVoices"`
	MidiDrumsBank  bool    `mapstructure:"MidiDrumsBank"`
	OutputDevice   string  `mapstructure:"OutputDevice"`
	LogLevel       string  `mapstructure:"LogLevel"`
}

// C is the global configuration instance.
var C Config

// mu protects concurrent access to C during hot-reload.
var mu sync.RWMutex

var (
	watcherMu       sync.Mutex
	watcherActive   bool
	watcherCtx      context.Context
	watcherCancel   context.CancelFunc
	currentCallback ReloadCallback
)

// ReloadCallback is called with the old and new configuration whenever
// the config file changes on disk.
type ReloadCallback func(old, new Config)

// Load reads configuration from ./tinysynth.toml (or $HOME/.tinysynth),
// falling back to defaults for anything unset, and populates C.
func Load() error {
	viper.SetConfigName("tinysynth")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.tinysynth")

	viper.SetDefault("SampleRate", 44100)
	viper.SetDefault("Stereo", true)
	viper.SetDefault("MasterVolume", 1.0)
	viper.SetDefault("MaxVoices", 32)
	viper.SetDefault("MidiDrumsBank", true)
	viper.SetDefault("OutputDevice", "")
	viper.SetDefault("LogLevel", "info")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	return viper.Unmarshal(&C)
}

// Watch starts watching the config file for changes and invokes
// callback on every reload. Only one watcher may be active; calling
// Watch again replaces the callback rather than starting a second
// fsnotify watch.
func Watch(callback ReloadCallback) (stop func(), err error) {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if !watcherActive {
		ctx, cancel := context.WithCancel(context.Background())
		watcherCtx = ctx
		watcherCancel = cancel
		currentCallback = callback
		watcherActive = true

		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			watcherMu.Lock()
			cb := currentCallback
			ctx := watcherCtx
			watcherMu.Unlock()

			if ctx != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
			}

			mu.Lock()
			old := C
			var newCfg Config
			if uerr := viper.Unmarshal(&newCfg); uerr == nil {
				C = newCfg
				mu.Unlock()
				if cb != nil {
					cb(old, newCfg)
				}
			} else {
				mu.Unlock()
			}
		})
	} else {
		currentCallback = callback
	}

	return func() {
		watcherMu.Lock()
		defer watcherMu.Unlock()
		if watcherCancel != nil {
			watcherCancel()
			watcherCancel = nil
			watcherCtx = nil
		}
		watcherActive = false
		currentCallback = nil
	}, nil
}

// Get returns a copy of the current configuration.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return C
}
