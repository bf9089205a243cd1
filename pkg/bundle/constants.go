package bundle

// Core bundle layout constants that never change
// For defaults and configuration, see defaults.go

// Version is reported by --version and the maintenance CLI
const Version = "0.2.0"

const (
	// Bundle anatomy - fixed by the host platform's bundle structure
	BundleExtension  = ".app"
	ContentsDirName  = "Contents"
	MacOSDirName     = "MacOS"
	ResourcesDirName = "Resources"
	InfoPlistName    = "Info.plist"
	PkgInfoName      = "PkgInfo"

	// PkgInfo payload: package type followed by an unset creator code
	PkgInfoContents = "APPL????"

	// The shim's sibling script - fixed name, resolved next to the binary
	LauncherScriptName = "launcher.sh"

	// Shell interpreter used for process replacement
	ShellInterpreterPath = "/bin/bash"
	ShellArgv0           = "bash"

	// Info.plist fixed values
	BundlePackageType     = "APPL"
	InfoDictionaryVersion = "6.0"

	// Resource seal - written at build time, checked by verify
	SealFileName   = ".appshim-seal.json"
	SealFormatName = "APPSHIM-SEAL/1"
)
