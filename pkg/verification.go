package pkg

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/bundleworks/appshim/pkg/bundle"
	"github.com/bundleworks/appshim/pkg/logging"
)

// VerifyBundleWithLogger verifies a built bundle with a provided logger
func VerifyBundleWithLogger(bundlePath string, logger hclog.Logger) {
	paths := bundle.NewBundlePaths(bundlePath)
	if !paths.Exists() {
		logger.Error("Bundle not found", "path", bundlePath)
		os.Exit(bundle.ExitVerifyError)
	}

	logger.Info("Verifying bundle integrity", "path", bundlePath)

	failures := bundle.VerifyBundleTree(paths, logger)

	if len(failures) == 0 {
		logger.Info("✓ Bundle verification passed")
		return
	}

	logger.Error("✗ Bundle verification failed", "failure_count", len(failures))
	for _, failure := range failures {
		logger.Error("  Verification failure", "details", failure)
	}
	os.Exit(bundle.ExitVerifyError)
}

// VerifyBundle verifies a bundle using default logger settings
func VerifyBundle(bundlePath string) {
	logger := logging.NewLogger("appshim-verify", logging.GetLogLevel(), nil)
	VerifyBundleWithLogger(bundlePath, logger)
}
