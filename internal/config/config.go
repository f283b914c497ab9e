// Package config loads patientbook settings.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. a YAML file (patientbook.yaml in the working directory, or an
//     explicit path)
//  3. a .env file in the working directory
//  4. PATIENTBOOK_* environment variables
//
// Command-line flags are applied on top by the CLI, which then calls
// Validate. The merged result is checked against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFileName is the YAML file looked up in the working directory.
const DefaultFileName = "patientbook.yaml"

// Environment variable names.
const (
	EnvDataFile       = "PATIENTBOOK_DATA_FILE"
	EnvPhotoDir       = "PATIENTBOOK_PHOTO_DIR"
	EnvBackupDir      = "PATIENTBOOK_BACKUP_DIR"
	EnvBackupCompress = "PATIENTBOOK_BACKUP_COMPRESS"
	EnvBackupKeep     = "PATIENTBOOK_BACKUP_KEEP"
	EnvPageSize       = "PATIENTBOOK_PAGE_SIZE"
)

// Config holds every setting.
type Config struct {
	DataFile       string `yaml:"data_file" json:"data_file"`
	PhotoDir       string `yaml:"photo_dir" json:"photo_dir"`
	BackupDir      string `yaml:"backup_dir" json:"backup_dir"`
	BackupCompress bool   `yaml:"backup_compress" json:"backup_compress"`
	// BackupKeep bounds the snapshots kept after each "backup create".
	// Zero keeps everything.
	BackupKeep int `yaml:"backup_keep" json:"backup_keep"`
	PageSize   int `yaml:"page_size" json:"page_size"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataFile: "patients.db",
		PhotoDir: "photos",
		PageSize: 24,
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit YAML file. It must exist.
	Path string
	// Dir is searched for DefaultFileName and .env. Empty means ".".
	Dir string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load merges defaults, the YAML file, .env and the environment, then
// validates the result.
func Load(opts LoadOptions) (Config, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cfg := Default()

	path, required := opts.Path, true
	if path == "" {
		path, required = filepath.Join(opts.Dir, DefaultFileName), false
	}
	if err := cfg.mergeYAML(path, required); err != nil {
		return Config{}, err
	}

	dotenv, err := readDotEnv(filepath.Join(opts.Dir, ".env"))
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := opts.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeYAML(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// readDotEnv parses a .env file without touching the process environment.
func readDotEnv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return vals, nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvDataFile, &c.DataFile)
	str(EnvPhotoDir, &c.PhotoDir)
	str(EnvBackupDir, &c.BackupDir)

	if v, ok := lookup(EnvBackupCompress); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", EnvBackupCompress, v)
		}
		c.BackupCompress = b
	}

	for key, dst := range map[string]*int{EnvBackupKeep: &c.BackupKeep, EnvPageSize: &c.PageSize} {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
	}
	return nil
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
