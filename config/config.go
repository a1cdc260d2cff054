// Package config loads operation configurations from files and the
// environment.
//
// A file is either the operation table itself or a document with an
// "operations" table and an optional schema_version:
//
//	schema_version: v1
//	operations:
//	  rotate:
//	    enabled: true
//	    angle_degrees: 15
//
// Environment variables of the form GEOTAPE_<OP>__<PARAM> override file
// values, for example GEOTAPE_ROTATE__ANGLE_DEGREES=30. Values stay strings
// and are coerced by the resolver.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gogpu/geotape"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GEOTAPE_"

// SchemaVersion is the only supported schema_version value.
const SchemaVersion = "v1"

// ErrUnsupportedFormat is returned for file extensions Load cannot parse.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Load reads the operation table at path and applies environment
// overrides. An empty path loads overrides only.
func Load(path string) (geotape.Config, error) {
	return load(path, EnvPrefix)
}

func load(path, prefix string) (geotape.Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if sv := k.String("schema_version"); sv != "" && sv != SchemaVersion {
		return nil, fmt.Errorf("config: schema_version %q not supported (want %s)", sv, SchemaVersion)
	}

	ops := k
	if k.Exists("operations") {
		ops = k.Cut("operations")
	} else {
		ops.Delete("schema_version")
	}

	if err := ops.Load(env.Provider(prefix, ".", envKey(prefix)), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	cfg := geotape.Config(ops.Raw())
	geotape.Logger().Debug("config: loaded", "path", path, "operations", len(cfg))
	return cfg, nil
}

// envKey maps GEOTAPE_ROTATE__ANGLE_DEGREES to rotate.angle_degrees.
// Variables without a parameter part are ignored.
func envKey(prefix string) func(string) string {
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		op, param, ok := strings.Cut(s, "__")
		if !ok || op == "" || param == "" {
			return ""
		}
		return op + "." + param
	}
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		// JSON is a subset of YAML 1.2.
		return yaml.Parser(), nil
	case ".toml":
		return TOML(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
