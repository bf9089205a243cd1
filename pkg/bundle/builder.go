package bundle

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/bundleworks/appshim/internal/stagedir"
	"github.com/bundleworks/appshim/pkg/archive"
	_ "github.com/bundleworks/appshim/pkg/archive/compress" // register archive codecs
	"github.com/bundleworks/appshim/pkg/logging"
	"github.com/bundleworks/appshim/pkg/utils/permissions"
)

// BuildWithLogLevel builds an application bundle with explicit log level control
func BuildWithLogLevel(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed, cliLogLevel string) {
	// Determine log level and source
	var logLevel string
	var logSource string

	if cliLogLevel != "" {
		logLevel = cliLogLevel
		logSource = "CLI --log-level"
	} else if envLevel := os.Getenv("APPSHIM_BUNDLER_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "APPSHIM_BUNDLER_LOG_LEVEL"
	} else if envLevel := os.Getenv("APPSHIM_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "APPSHIM_LOG_LEVEL"
	} else {
		logLevel = DefaultBundlerLogLevel
		logSource = "default"
	}

	// Parse JSON format from log level
	jsonFormat := false
	actualLevel := logLevel
	if strings.HasPrefix(logLevel, "json") {
		jsonFormat = true
		parts := strings.Split(logLevel, ":")
		if len(parts) > 1 {
			actualLevel = parts[1]
		} else {
			actualLevel = "info"
		}
	}

	// Configure logger
	var output io.Writer = os.Stderr

	// Support log file output
	if logPath := os.Getenv("APPSHIM_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			output = file
		}
	}

	// Add 📦 prefix to non-JSON output
	if !jsonFormat {
		output = logging.NewPrefixWriter("📦 ", output)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "appshim-bundler",
		Level:      hclog.LevelFromString(actualLevel),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format without timezone
		TimeFn: func() time.Time {
			return time.Now().UTC() // Force UTC time
		},
	})

	logger.Debug("Log level", "level", actualLevel, "source", logSource)
	logger.Info("Bundler starting...", "manifest", manifestPath)

	doBuild(logger, manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed)
}

// BuildWithOptions builds a bundle with full control over signing keys
func BuildWithOptions(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed string) {
	BuildWithLogLevel(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed, "")
}

// doBuild performs the actual build
func doBuild(logger hclog.Logger, manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed string) {

	// Read manifest
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		logger.Error("❌ Failed to load manifest", "error", err)
		os.Exit(ExitBundleError)
	}

	// 🚀 Resolve shim binary
	// Priority: 1. Command-line arg, 2. APPSHIM_LAUNCHER_BIN env var
	shimPath := shimBin
	if shimPath == "" {
		shimPath = os.Getenv("APPSHIM_LAUNCHER_BIN")
	}
	if shimPath == "" {
		logger.Error("❌ Shim binary must be specified via --launcher-bin or APPSHIM_LAUNCHER_BIN environment variable")
		os.Exit(ExitInvalidArgs)
	}
	logger.Info("🚀 Loading shim", "path", shimPath)

	// Check shim version
	versionCmd := exec.Command(shimPath, "version")
	versionCmd.Env = append(os.Environ(), "APPSHIM_LAUNCHER_CLI=1")
	versionOutput, err := versionCmd.CombinedOutput()
	if err != nil {
		logger.Warn("⚠️ Failed to get shim version", "error", err)
	} else {
		versionStr := strings.TrimSpace(string(versionOutput))
		logger.Info("🔍 Shim version", "version", versionStr)
	}

	shimInfo, err := os.Stat(shimPath)
	if err != nil {
		logger.Error("❌ Failed to stat shim binary", "error", err, "path", shimPath)
		os.Exit(ExitIOError)
	}

	// Resolve output path: default is <name>.app in the working directory
	if outputPath == "" {
		outputPath = manifest.App.Name + BundleExtension
	}
	if !strings.HasSuffix(outputPath, BundleExtension) {
		outputPath += BundleExtension
	}
	outputPath, err = filepath.Abs(outputPath)
	if err != nil {
		logger.Error("❌ Failed to resolve output path", "error", err)
		os.Exit(ExitIOError)
	}

	// 📁 Ensure the output parent exists before staging next to it
	outputDir := filepath.Dir(outputPath)
	logger.Debug("📁 Ensuring output directory exists", "dir", outputDir)
	if err := os.MkdirAll(outputDir, os.FileMode(DirPerms)); err != nil {
		logger.Error("❌ Failed to create output directory", "error", err, "dir", outputDir)
		os.Exit(ExitIOError)
	}

	// 💾 Disk space preflight
	estimated := estimateBundleSize(manifest, shimInfo.Size())
	if manifest.Archive != nil {
		estimated += archive.EstimateArchiveSize(archiveFormatName(manifest), estimated)
	}
	needed := estimated * DiskSpaceMultiplier
	if available, err := getAvailableDiskSpace(outputDir); err == nil && available < needed {
		logger.Error("❌ Not enough disk space for staging",
			"needed", needed,
			"available", available,
			"dir", outputDir)
		os.Exit(ExitIOError)
	}

	// 🔒 One build per output path
	stagedir.ReclaimStale(outputPath, logger)
	lockPath := BuildLockPath(outputPath)
	acquired, err := TryAcquireBuildLock(lockPath, logger)
	if err != nil || !acquired {
		logger.Error("❌ Another build owns this output", "output", outputPath, "error", err)
		os.Exit(ExitIOError)
	}

	staging, err := stagedir.Create(outputPath)
	if err != nil {
		logger.Error("❌ Failed to create staging directory", "error", err)
		ReleaseBuildLock(lockPath, logger)
		os.Exit(ExitIOError)
	}
	if err := stagedir.WriteMarker(staging, manifest.App.Name, "appshim-bundler "+Version); err != nil {
		logger.Warn("Failed to write staging marker", "error", err)
	}

	buildErr := assembleBundle(logger, manifest, shimPath, staging, outputPath, privateKeyPath, publicKeyPath, keySeed)

	if removeErr := stagedir.Remove(staging); removeErr != nil {
		logger.Warn("Failed to remove staging directory", "path", staging, "error", removeErr)
	}
	ReleaseBuildLock(lockPath, logger)

	if buildErr != nil {
		logger.Error("❌ Build failed", "error", buildErr)
		os.Exit(ExitBundleError)
	}

	logger.Info("✅ Successfully built application bundle",
		"output", outputPath,
		"app", manifest.App.Name,
		"version", manifest.BundleVersion(),
		"size", fmt.Sprintf("%.2f MB", float64(pathSize(outputPath))/(1024*1024)))

	// 🗜️ Optional distribution archive
	if manifest.Archive != nil {
		archivePath := manifest.Archive.Output
		if archivePath == "" {
			format, _ := archive.ResolveFormat(archiveFormatName(manifest))
			archivePath = strings.TrimSuffix(outputPath, BundleExtension) + "-" + manifest.BundleVersion() + format.Extension
		}
		checksum, err := archive.Pack(outputPath, archivePath, archiveFormatName(manifest), logger)
		if err != nil {
			logger.Error("❌ Failed to create archive", "error", err)
			os.Exit(ExitIOError)
		}
		if err := archive.WriteChecksumFile(archivePath, checksum); err != nil {
			logger.Warn("Failed to write archive checksum file", "error", err)
		}
	}
}

// assembleBundle stages the complete .app tree, seals it, and swaps it into
// place. Everything happens inside the staging directory until the final
// rename.
func assembleBundle(logger hclog.Logger, manifest *Manifest, shimPath, staging, outputPath, privateKeyPath, publicKeyPath, keySeed string) error {
	paths := NewBundlePaths(filepath.Join(staging, manifest.App.Name+BundleExtension))

	// 📁 Bundle skeleton
	for _, dir := range []string{paths.MacOS(), paths.Resources()} {
		if err := os.MkdirAll(dir, os.FileMode(DirPerms)); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// 🚀 Native shim, renamed to the bundle's own name
	logger.Debug("🚀 Installing shim", "dest", paths.Shim())
	if err := copyFileWithMode(shimPath, paths.Shim(), os.FileMode(ShimPerms)); err != nil {
		return fmt.Errorf("failed to install shim: %w", err)
	}

	// 📜 Launcher script next to the shim
	logger.Debug("📜 Installing launcher script", "dest", paths.LauncherScript())
	if err := InstallLauncherScript(manifest, paths.LauncherScript()); err != nil {
		return err
	}

	// 🖼️ Icon before the plist so CFBundleIconFile reflects reality
	hasIcon := false
	if manifest.Icon != nil && manifest.Icon.Source != "" {
		iconDest := paths.IconFile(DefaultIconBaseName)
		if err := RenderIconFile(manifest.Icon.Source, iconDest, manifest.Icon.Sizes, logger); err != nil {
			return err
		}
		hasIcon = true
	}

	// 📂 Manifest resources into Resources/
	for _, resource := range manifest.Resources {
		target := resource.Target
		if target == "" {
			target = filepath.Base(resource.Source)
		}
		dest := filepath.Join(paths.Resources(), filepath.FromSlash(target))

		var mode os.FileMode
		if resource.Permissions != "" {
			parsed, err := permissions.ParseOctalString(resource.Permissions)
			if err != nil {
				return fmt.Errorf("resource %s: %w", resource.Source, err)
			}
			mode = os.FileMode(parsed)
		}

		logger.Debug("📂 Installing resource", "source", resource.Source, "dest", dest)
		if err := installResource(resource.Source, dest, mode); err != nil {
			return fmt.Errorf("failed to install resource %s: %w", resource.Source, err)
		}
	}

	// 📋 Property list and package type marker
	logger.Debug("📋 Writing Info.plist", "dest", paths.InfoPlist())
	if err := os.WriteFile(paths.InfoPlist(), BuildInfoPlist(manifest, hasIcon), os.FileMode(ResourcePerms)); err != nil {
		return fmt.Errorf("failed to write Info.plist: %w", err)
	}
	if err := os.WriteFile(paths.PkgInfo(), []byte(PkgInfoContents), os.FileMode(ResourcePerms)); err != nil {
		return fmt.Errorf("failed to write PkgInfo: %w", err)
	}

	// 🔐 Seal the finished tree
	privateKey, publicKey, err := resolveSigningKeys(privateKeyPath, publicKeyPath, keySeed)
	if err != nil {
		return err
	}
	bundleInfo := SealBundle{
		Name:       manifest.App.Name,
		Identifier: manifest.App.Identifier,
		Version:    manifest.BundleVersion(),
		Tool:       "appshim-bundler " + Version,
	}
	if err := WriteSeal(paths, bundleInfo, privateKey, publicKey, logger); err != nil {
		return err
	}

	// 🔄 Swap into place
	return atomicReplace(paths.Root(), outputPath, logger)
}

// archiveFormatName returns the manifest's archive format, defaulted
func archiveFormatName(manifest *Manifest) string {
	if manifest.Archive != nil && manifest.Archive.Format != "" {
		return manifest.Archive.Format
	}
	return DefaultArchiveFormat
}

// estimateBundleSize totals the payload headed into the staged bundle
func estimateBundleSize(manifest *Manifest, shimSize int64) int64 {
	total := shimSize + 4*1024 // script, plist, PkgInfo, seal overhead

	for _, resource := range manifest.Resources {
		total += pathSize(resource.Source)
	}
	if manifest.Script.Source != "" {
		total += pathSize(manifest.Script.Source)
	}
	if manifest.Icon != nil && manifest.Icon.Source != "" {
		// The icns container holds several rendered sizes of the source
		total += 4 * pathSize(manifest.Icon.Source)
	}
	return total
}

// pathSize returns the recursive size of a file or directory tree
func pathSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}
