// Package config loads the optional on-disk user configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/vialtools/vialctl/internal/color"
)

// Config holds the parsed user configuration. The zero value means no
// overrides are configured.
type Config struct {
	WhitePoint *color.WhitePoint
}

// rawConfig mirrors the TOML document. white_point is decoded as []int so
// that out-of-range values can be rejected with a warning instead of a
// decode error.
type rawConfig struct {
	WhitePoint []int `toml:"white_point"`
}

// Path returns the location of the configuration file under the platform
// config directory.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "vialctl", "config.toml")
}

// Load reads the configuration file if present. A missing file yields the
// zero Config; malformed or out-of-range content is ignored with a warning.
// Load never fails the command.
func Load() Config {
	return LoadFile(Path())
}

// LoadFile reads the configuration from an explicit path. See Load.
func LoadFile(path string) Config {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var raw rawConfig
	if err := toml.Unmarshal(contents, &raw); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config")
		return Config{}
	}

	if raw.WhitePoint == nil {
		return Config{}
	}

	wp, ok := parseWhitePoint(raw.WhitePoint)
	if !ok {
		log.Warn().Str("path", path).Ints("white_point", raw.WhitePoint).
			Msg("Ignoring white_point in config: must be 3 channels, each 1-255")
		return Config{}
	}

	return Config{WhitePoint: &wp}
}

func parseWhitePoint(values []int) (color.WhitePoint, bool) {
	if len(values) != 3 {
		return color.WhitePoint{}, false
	}

	var rgb [3]uint8
	for i, v := range values {
		if v < 0 || v > 255 {
			return color.WhitePoint{}, false
		}
		rgb[i] = uint8(v)
	}

	wp, err := color.NewWhitePoint(rgb)
	if err != nil {
		return color.WhitePoint{}, false
	}
	return wp, true
}
