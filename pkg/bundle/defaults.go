package bundle

// =================================
// File permissions defaults
// =================================
const (
	// Bundles must stay world-readable or the launch framework refuses them
	ShimPerms     = 0o755 // Native shim inside Contents/MacOS
	ScriptPerms   = 0o755 // launcher.sh must be executable by the shell
	ResourcePerms = 0o644 // Copied resources unless the manifest overrides
	DirPerms      = 0o755 // Bundle directories
	SealPerms     = 0o644 // Resource seal file
	KeyPerms      = 0o600 // Signing keys stay owner-only
)

// =================================
// Disk and memory defaults
// =================================
const (
	DiskSpaceMultiplier = 2         // Require 2x payload size for staging
	ChunkSize           = 64 * 1024 // 64KB for streaming copies
)

// =================================
// Path constants
// =================================
const (
	LockSuffix = ".lock"
)

// =================================
// Bundle identity defaults
// =================================
const (
	DefaultBundleVersion        = "1.0.0"
	DefaultMinimumSystemVersion = "10.13"
	DefaultIconBaseName         = "app"
)

// =================================
// Launcher defaults
// =================================
const (
	// The shim stays silent on the happy path; diagnostics only on failure
	DefaultLauncherLogLevel = "warn"
	DefaultBundlerLogLevel  = "info"
)

// =================================
// Validation defaults
// =================================
const (
	DefaultValidationLevel = "standard" // Default validation level
)

// =================================
// Archive defaults
// =================================
const (
	DefaultArchiveFormat = "tar.gz"
)
