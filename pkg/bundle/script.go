package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
	"github.com/bundleworks/appshim/pkg/utils/shellwords"
)

// GenerateLauncherScript renders the launcher script the shim hands to the
// shell. The script locates its own bundle directories, applies the manifest
// environment, and execs the configured command so process identity survives
// the final hop too.
func GenerateLauncherScript(manifest *Manifest) ([]byte, error) {
	words, err := shellwords.Split(manifest.Script.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: script.command: %v", apperrors.ErrManifestInvalid, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: script.command is empty", apperrors.ErrManifestInvalid)
	}

	var buf bytes.Buffer
	buf.WriteString("#!/bin/bash\n")
	buf.WriteString("# Generated by appshim-bundler " + Version + "\n\n")
	buf.WriteString(`SCRIPT_DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"` + "\n")
	buf.WriteString(`CONTENTS_DIR="$(dirname "$SCRIPT_DIR")"` + "\n")
	buf.WriteString(`RESOURCES_DIR="$CONTENTS_DIR/Resources"` + "\n\n")

	// Environment exports, sorted for stable output. Values are literal.
	if len(manifest.Script.Environment) > 0 {
		keys := make([]string, 0, len(manifest.Script.Environment))
		for key := range manifest.Script.Environment {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := shellwords.Join([]string{manifest.Script.Environment[key]})
			buf.WriteString(fmt.Sprintf("export %s=%s\n", key, value))
		}
		buf.WriteString("\n")
	}

	switch {
	case manifest.Script.WorkingDir == "":
		buf.WriteString("cd \"$RESOURCES_DIR\"\n\n")
	case filepath.IsAbs(manifest.Script.WorkingDir):
		buf.WriteString("cd " + shellwords.Join([]string{manifest.Script.WorkingDir}) + "\n\n")
	default:
		buf.WriteString("cd \"$RESOURCES_DIR/" + escapeDoubleQuoted(manifest.Script.WorkingDir) + "\"\n\n")
	}

	buf.WriteString("exec " + shellwords.Join(words) + "\n")
	return buf.Bytes(), nil
}

// escapeDoubleQuoted escapes the characters the shell treats specially
// inside a double-quoted string
func escapeDoubleQuoted(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		`$`, `\$`,
		"`", "\\`",
	)
	return replacer.Replace(s)
}

// InstallLauncherScript places the launcher script into the staged bundle,
// either copying the manifest source verbatim or generating one from the
// configured command. Either way the result is executable.
func InstallLauncherScript(manifest *Manifest, scriptPath string) error {
	if manifest.Script.Source != "" {
		if err := copyFileWithMode(manifest.Script.Source, scriptPath, os.FileMode(ScriptPerms)); err != nil {
			return fmt.Errorf("failed to install launcher script: %w", err)
		}
		return nil
	}

	content, err := GenerateLauncherScript(manifest)
	if err != nil {
		return err
	}
	if err := os.WriteFile(scriptPath, content, os.FileMode(ScriptPerms)); err != nil {
		return fmt.Errorf("failed to write launcher script: %w", err)
	}
	return nil
}
