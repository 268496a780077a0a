package blob

import (
	"context"
	"fmt"
	"os"

	infraS3 "stepgen/internal/infra/blob/s3"
)

// Config selects and configures an artifact backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// ConfigFromEnv reads the artifact backend settings.
//
//	STEPGEN_BLOB_DRIVER: fs|s3|memory (default fs)
//	STEPGEN_BLOB_FS_ROOT: directory root when driver=fs (default ./stepgen-artifacts)
//	STEPGEN_BLOB_S3_*: see infra/blob/s3.ConfigFromEnv
func ConfigFromEnv() Config {
	driver := os.Getenv("STEPGEN_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	return Config{
		Driver: Driver(driver),
		FSRoot: os.Getenv("STEPGEN_BLOB_FS_ROOT"),
		S3:     infraS3.ConfigFromEnv(),
	}
}

// Open constructs the store named by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// OpenFromEnv is Open(ctx, ConfigFromEnv()).
func OpenFromEnv(ctx context.Context) (Store, error) {
	return Open(ctx, ConfigFromEnv())
}
