package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS      StorageMode = "gcs"
	StorageModeEmulator StorageMode = "gcs_emulator"
)

type StorageConfig struct {
	Mode          StorageMode `yaml:"mode"`
	EmulatorHost  string      `yaml:"emulator_host"`
	Bucket        string      `yaml:"bucket"`
	PublicBaseURL string      `yaml:"public_base_url"`
	Credentials   string      `yaml:"credentials"`
}

const storageScopeReadWrite = "https://www.googleapis.com/auth/devstorage.read_write"

func (cfg StorageConfig) IsEmulator() bool { return cfg.Mode == StorageModeEmulator }

type StorageConfigError struct {
	Field string
	Value string
}

func (e *StorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	if e.Value == "" {
		return fmt.Sprintf("object storage: missing %s", e.Field)
	}
	return fmt.Sprintf("object storage: invalid %s=%q", e.Field, e.Value)
}

// StorageConfigFromEnv reads OBJECT_STORAGE_MODE, OBJECT_STORAGE_BUCKET,
// OBJECT_STORAGE_PUBLIC_BASE_URL, OBJECT_STORAGE_CREDENTIALS and STORAGE_EMULATOR_HOST. A set emulator host
// with no explicit mode selects the emulator.
func StorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		EmulatorHost:  strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/"),
		Bucket:        strings.TrimSpace(os.Getenv("OBJECT_STORAGE_BUCKET")),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")), "/"),
		Credentials:   strings.TrimSpace(os.Getenv("OBJECT_STORAGE_CREDENTIALS")),
	}
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("OBJECT_STORAGE_MODE")))
	switch StorageMode(raw) {
	case "":
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeEmulator
		}
	case StorageModeGCS, StorageModeEmulator:
		cfg.Mode = StorageMode(raw)
	default:
		return cfg, &StorageConfigError{Field: "OBJECT_STORAGE_MODE", Value: raw}
	}
	return cfg, ValidateStorageConfig(cfg)
}

func ValidateStorageConfig(cfg StorageConfig) error {
	if cfg.Mode != StorageModeGCS && cfg.Mode != StorageModeEmulator {
		return &StorageConfigError{Field: "OBJECT_STORAGE_MODE", Value: string(cfg.Mode)}
	}
	if cfg.Bucket == "" {
		return &StorageConfigError{Field: "OBJECT_STORAGE_BUCKET"}
	}
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return &StorageConfigError{Field: "OBJECT_STORAGE_PUBLIC_BASE_URL", Value: cfg.PublicBaseURL}
	}
	if !cfg.IsEmulator() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &StorageConfigError{Field: "STORAGE_EMULATOR_HOST"}
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return &StorageConfigError{Field: "STORAGE_EMULATOR_HOST", Value: cfg.EmulatorHost}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
