package storage

import (
	"fmt"
	"strings"
	"sync"
)

// Config holds storage configuration. Values map onto the STORAGE_PROVIDER
// and S3_* environment variables applied by pkg/config.
type Config struct {
	Provider string      `yaml:"provider"`
	Local    LocalConfig `yaml:"local"`
	S3       S3Config    `yaml:"s3"`
}

// LocalConfig holds local filesystem storage configuration.
type LocalConfig struct {
	BasePath string `yaml:"base_path"`
}

// S3Config holds S3-compatible storage configuration. All fields except
// PathStyle are required when the s3 provider is selected.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBucket    string `yaml:"public_bucket"`
	PrivateBucket   string `yaml:"private_bucket"`
	PublicBucketURL string `yaml:"public_bucket_url"`
	PathStyle       bool   `yaml:"path_style"`
}

// New constructs a storage provider from configuration. For the s3
// provider every required setting is validated before the client is built,
// so misconfiguration surfaces at startup rather than on first upload.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocal(cfg.Local)
	case "s3":
		if err := validateS3Config(cfg.S3); err != nil {
			return nil, err
		}
		return NewS3(cfg.S3)
	default:
		return nil, NewError(ErrCodeInvalidConfig, fmt.Sprintf("unsupported storage provider: %s", cfg.Provider))
	}
}

// validateS3Config checks all required S3 settings and names every missing
// one, not just the first.
func validateS3Config(cfg S3Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"S3_ENDPOINT", cfg.Endpoint},
		{"S3_REGION", cfg.Region},
		{"S3_ACCESS_KEY_ID", cfg.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", cfg.SecretAccessKey},
		{"S3_PUBLIC_BUCKET", cfg.PublicBucket},
		{"S3_PRIVATE_BUCKET", cfg.PrivateBucket},
		{"S3_PUBLIC_BUCKET_URL", cfg.PublicBucketURL},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return NewError(ErrCodeInvalidConfig,
			fmt.Sprintf("missing required S3 configuration: %s", strings.Join(missing, ", ")))
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultProvider Provider
	defaultErr      error
)

// Default returns the process-wide provider, constructing it on first
// call. Every later call returns the same instance regardless of cfg.
// Tests construct adapters explicitly via New/NewLocal instead of going
// through this memoization.
func Default(cfg Config) (Provider, error) {
	defaultOnce.Do(func() {
		defaultProvider, defaultErr = New(cfg)
	})
	return defaultProvider, defaultErr
}
