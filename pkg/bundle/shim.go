package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
	"github.com/bundleworks/appshim/pkg/logging"
)

// LaunchWithLogLevel runs the shim with explicit log level control
func LaunchWithLogLevel(args []string, cliLogLevel, cliLogSource string) {
	// Determine log level and source
	var logLevel string
	var logSource string

	if cliLogLevel != "" {
		logLevel = cliLogLevel
		logSource = cliLogSource
	} else if envLevel := os.Getenv("APPSHIM_LAUNCHER_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "APPSHIM_LAUNCHER_LOG_LEVEL"
	} else if envLevel := os.Getenv("APPSHIM_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "APPSHIM_LOG_LEVEL"
	} else {
		logLevel = DefaultLauncherLogLevel
		logSource = "default"
	}

	// Parse JSON format from log level (e.g., "json:debug" or just "debug")
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

	var output io.Writer = os.Stderr

	// Support log file output
	if logPath := os.Getenv("APPSHIM_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			output = file
		}
	}

	// Add prefix to non-JSON output
	if !jsonFormat {
		output = logging.NewPrefixWriter("📦 ", output)
	}

	loggerOpts := &hclog.LoggerOptions{
		Name:       "appshim-launcher",
		Level:      hclog.LevelFromString(actualLevel),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format without timezone
		TimeFn: func() time.Time {
			return time.Now().UTC() // Force UTC time
		},
	}

	logger := hclog.New(loggerOpts)

	if isEnvTrue("APPSHIM_LAUNCHER_CLI") {
		logger.Debug("Log level", "level", actualLevel, "source", logSource)
		logger.Debug("💻 Running in CLI mode")
		runMaintenanceCLI(args, logger)
		return
	}

	// The launch framework may pass arguments of its own (-psn_ and
	// friends); the shim consumes none of them and hands the shell exactly
	// one argument, the script path.
	if len(args) > 0 {
		logger.Debug("🙈 Ignoring launch arguments", "count", len(args))
	}

	runShim(logger)
}

// Launch is the default entry point
func Launch(args []string) {
	LaunchWithLogLevel(args, "", "")
}

// runShim executes the three-step pipeline: locate the running binary,
// compose the sibling script path, replace the process image. Control only
// comes back on failure; both failure kinds exit 1 after a diagnostic on
// stderr.
func runShim(logger hclog.Logger) {
	exePath, err := ResolveExecutable()
	if err != nil {
		logger.Error("🧭 Self-location failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitFailure)
	}
	logger.Debug("🧭 Resolved executable", "path", exePath)

	scriptPath := ScriptPath(exePath)
	logger.Debug("📜 Composed script path", "path", scriptPath)

	// No existence check here: once the image is replaced, the shell owns
	// the missing-script diagnostic and the exit status.
	err = ReplaceProcess(scriptPath, logger)

	// Only reached when the exec call itself failed.
	logger.Error("🚨 Process replacement failed", "error", err)
	fmt.Fprintf(os.Stderr, "Failed to launch: %v\n", err)
	os.Exit(ExitFailure)
}

// ReplaceProcess replaces the current process image with the shell
// interpreter running the composed script. On success this never returns;
// the shell keeps the PID, open descriptors, environment, and working
// directory of the caller.
func ReplaceProcess(scriptPath string, logger hclog.Logger) error {
	argv := []string{ShellArgv0, scriptPath}
	envv := os.Environ()

	logger.Debug("🔄 Replacing process via exec",
		"interpreter", ShellInterpreterPath,
		"script", scriptPath,
		"env_count", len(envv))

	// This replaces the current process and never returns on success
	err := execFunc(ShellInterpreterPath, argv, envv)

	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrReplacementFailed, err)
	}

	// This should never be reached (even on error, we return above)
	return errors.New("process replacement returned unexpectedly with no error")
}
