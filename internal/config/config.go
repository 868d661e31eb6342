package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// LocalNames are searched in the scan root, in order.
var LocalNames = []string{".textgate.yaml", ".textgate.yml", "textgate.yaml", "textgate.yml"}

// FileConfig mirrors the scan flags. Nil means "not set" so layers can be
// merged with CLI > local > global precedence.
type FileConfig struct {
	Rules           *string  `yaml:"rules"`
	Exclude         []string `yaml:"exclude"`
	DefaultExcludes *bool    `yaml:"default_excludes"`
	MaxBytes        *string  `yaml:"max_bytes"`
	Timeout         *string  `yaml:"timeout"`
	Threads         *int     `yaml:"threads"`
	JSONOut         *string  `yaml:"json_out"`
	SARIFOut        *string  `yaml:"sarif_out"`
	AuditLog        *string  `yaml:"audit_log"`
	LogLevel        *string  `yaml:"log_level"`

	// path is where the config was read from, empty if none.
	path string
}

func (c FileConfig) Path() string { return c.path }

func LoadFile(path string) (FileConfig, error) {
	var c FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	c.path = path
	return c, nil
}

// LoadLocal returns the first config found in root. It errors with
// os.ErrNotExist when there is none.
func LoadLocal(root string) (FileConfig, error) {
	for _, n := range LocalNames {
		p := filepath.Join(root, n)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, fmt.Errorf("no local config in %s: %w", root, os.ErrNotExist)
}

// LoadGlobal reads $XDG_CONFIG_HOME/textgate/config.yml, falling back to
// ~/.config/textgate/config.yml.
func LoadGlobal() (FileConfig, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return FileConfig{}, fmt.Errorf("no global config dir: %w", os.ErrNotExist)
		}
		dir = filepath.Join(home, ".config")
	}
	for _, n := range []string{"config.yml", "config.yaml"} {
		p := filepath.Join(dir, "textgate", n)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, fmt.Errorf("no global config in %s: %w", dir, os.ErrNotExist)
}

// Load returns the local and global layers for root. Missing files are not
// errors; files that exist but do not parse are.
func Load(root string) (local, global FileConfig, err error) {
	local, err = LoadLocal(root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return FileConfig{}, FileConfig{}, err
	}
	global, err = LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return FileConfig{}, FileConfig{}, err
	}
	return local, global, nil
}

// ParseSize accepts human sizes as well as plain byte counts. Binary suffixes
// ("512KiB", "1MiB") are powers of 1024, decimal ones ("1MB") powers of 1000.
func ParseSize(s string) (int64, error) {
	parse := units.FromHumanSize
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(s)), "ib") {
		parse = units.RAMInBytes
	}
	n, err := parse(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: max_bytes %q: %v", ErrInvalid, s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: max_bytes %q must be positive", ErrInvalid, s)
	}
	return n, nil
}

func ParseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q: %v", ErrInvalid, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: timeout %q must not be negative", ErrInvalid, s)
	}
	return d, nil
}

// PickString returns the first set value: the flag when changed, then the
// local and global layers, then the flag default.
func PickString(changed bool, flag string, local, global *string) string {
	if changed {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return flag
}

func PickInt(changed bool, flag int, local, global *int) int {
	if changed {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return flag
}

func PickBool(changed bool, flag bool, local, global *bool) bool {
	if changed {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return flag
}

// PickList prefers the flag values, then local, then global. Lists do not
// merge across layers.
func PickList(changed bool, flag, local, global []string) []string {
	if changed {
		return flag
	}
	if local != nil {
		return local
	}
	if global != nil {
		return global
	}
	return flag
}
