package bundle

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
)

func buildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// runMaintenanceCLI handles the env-gated maintenance commands. The gate
// keeps the default launch path argument-free: commands are only interpreted
// when APPSHIM_LAUNCHER_CLI is set.
func runMaintenanceCLI(args []string, logger hclog.Logger) {
	exePath, err := ResolveExecutable()
	if err != nil {
		logger.Error("❌ Failed to resolve executable", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitIOError)
	}

	if len(args) < 1 {
		// Default to info command when no args provided
		showShimInfo(exePath, logger)
		return
	}

	switch args[0] {
	case "info":
		showShimInfo(exePath, logger)
	case "path":
		fmt.Println(ScriptPath(exePath))
	case "verify":
		verifyInstallation(exePath, logger)
	case "run":
		// Explicit launch for scripted use; never returns on success
		runShim(logger)
	case "version", "--version":
		fmt.Printf("appshim-launcher %s\n", Version)
		fmt.Printf("Built: %s\n", buildTimestamp())
	case "help", "--help":
		fmt.Println("Application Shim Launcher - CLI Mode")
		fmt.Println()
		fmt.Println("Available commands:")
		fmt.Println("  info              Show installation information (default)")
		fmt.Println("  path              Print the composed launcher script path")
		fmt.Println("  verify            Verify the installation and resource seal")
		fmt.Println("  run               Replace this process with the launcher script")
		fmt.Println("  version           Show version information")
		fmt.Println("  help              Show this help message")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  APPSHIM_LAUNCHER_CLI=1 ./MyApp.app/Contents/MacOS/MyApp <command>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  APPSHIM_LAUNCHER_CLI=1 ./MyApp.app/Contents/MacOS/MyApp info")
		fmt.Println("  APPSHIM_LAUNCHER_CLI=1 ./MyApp.app/Contents/MacOS/MyApp verify")
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n", args[0])
		fmt.Fprintf(os.Stderr, "Available commands: info, path, verify, run, version, help\n")
		os.Exit(ExitInvalidArgs)
	}
}

// showShimInfo displays installation facts in human-readable format
func showShimInfo(exePath string, logger hclog.Logger) {
	scriptPath := ScriptPath(exePath)

	fmt.Printf("Shim: %s\n", exePath)
	fmt.Printf("Script: %s\n", scriptPath)

	if info, err := os.Stat(scriptPath); err == nil {
		fmt.Printf("Script mode: %s\n", info.Mode().Perm())
	} else {
		fmt.Println("Script mode: (missing)")
	}

	paths, ok := NewBundlePathsFromExecutable(exePath)
	if !ok {
		fmt.Println("Bundle: not installed inside an application bundle")
		return
	}

	fmt.Printf("Bundle: %s\n", paths.Root())

	if values, err := LoadInfoPlist(paths.InfoPlist()); err == nil {
		if name := values["CFBundleDisplayName"]; name != "" {
			fmt.Printf("Display name: %s\n", name)
		}
		if identifier := values["CFBundleIdentifier"]; identifier != "" {
			fmt.Printf("Identifier: %s\n", identifier)
		}
		if version := values["CFBundleShortVersionString"]; version != "" {
			fmt.Printf("Version: %s\n", version)
		}
	} else {
		logger.Debug("Could not read bundle property list", "error", err)
	}

	if _, err := os.Stat(paths.SealFile()); err == nil {
		fmt.Println("Seal: present (run 'verify' to check)")
	} else {
		fmt.Println("Seal: none")
	}
}

// verifyInstallation checks the shim's surroundings and exits non-zero when
// anything a launch would need is broken
func verifyInstallation(exePath string, logger hclog.Logger) {
	fmt.Println("Verifying launcher installation...")

	var failures []string

	paths, ok := NewBundlePathsFromExecutable(exePath)
	if ok {
		failures = VerifyBundleTree(paths, logger)
	} else {
		fmt.Println("- Not inside an application bundle, checking the script only")
		if err := VerifyScript(ScriptPath(exePath)); err != nil {
			failures = append(failures, fmt.Sprintf("Launcher script check failed: %v", err))
		} else {
			fmt.Println("✓ Launcher script present and executable")
		}
	}

	if len(failures) == 0 {
		fmt.Println("\n✓ Installation verification passed")
		return
	}

	fmt.Println("\n✗ Installation verification failed:")
	for _, failure := range failures {
		fmt.Printf("  - %s\n", failure)
	}
	os.Exit(ExitFailure)
}
