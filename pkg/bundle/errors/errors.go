package errors

import "errors"

var (
	// Self-location errors 🧭
	ErrExecutablePath = errors.New("❌ could not determine executable path")
	ErrPathResolution = errors.New("❌ could not resolve path")

	// Bundle layout errors 📦
	ErrNotABundle       = errors.New("❌ not an application bundle")
	ErrScriptMissing    = errors.New("❌ launcher script missing")
	ErrScriptNotRegular = errors.New("❌ launcher script is not a regular file")
	ErrScriptPerms      = errors.New("❌ launcher script is not executable")

	// Seal errors 🔒
	ErrChecksumMismatch = errors.New("❌ checksum mismatch")
	ErrSignatureInvalid = errors.New("❌ invalid signature")
	ErrNoSeal           = errors.New("❌ no resource seal found")
	ErrSealedFileGone   = errors.New("❌ sealed file missing")

	// Execution errors 🚀
	ErrReplacementFailed = errors.New("❌ process replacement failed")

	// Build errors 🛠️
	ErrManifestInvalid = errors.New("❌ invalid build manifest")
	ErrShimMissing     = errors.New("❌ launcher shim binary not found")
)
