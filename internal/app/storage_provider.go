package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/proposalpilot-backend/internal/platform/gcp"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

var newBlobStore = gcp.NewBlobStore

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code StorageProviderBootstrapErrorCode
	// Reason is the config error code when Code is invalid_config.
	Reason string
	Mode   string
	Cause  error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s reason=%s mode=%q): %v", e.Code, e.Reason, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBlobStore picks the upload store from OBJECT_STORAGE_MODE and the
// related variables.
func resolveBlobStore(ctx context.Context, log *logger.Logger) (gcp.BlobStore, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfigFromEnv()
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider selection failed", "mode", storageCfg.Mode, "error", classified)
		return nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	store, err := newBlobStore(ctx, log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider bootstrap failed", "mode", storageCfg.Mode, "error", classified)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		mode := string(storageCfg.Mode)
		if mode == "" {
			mode = cfgErr.Mode
		}
		return &StorageProviderBootstrapError{
			Code:   StorageProviderBootstrapErrorInvalidConfig,
			Reason: string(cfgErr.Code),
			Mode:   mode,
			Cause:  err,
		}
	}
	return &StorageProviderBootstrapError{
		Code:  StorageProviderBootstrapErrorConnectFailed,
		Mode:  string(storageCfg.Mode),
		Cause: err,
	}
}
