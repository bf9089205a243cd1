package bundle

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
	"github.com/bundleworks/appshim/pkg/utils/permissions"
)

// VerifyScript checks that the launcher script is present, a regular file,
// and executable. It does not read the script contents.
func VerifyScript(scriptPath string) error {
	info, err := os.Stat(scriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrScriptMissing, scriptPath)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", apperrors.ErrScriptNotRegular, scriptPath)
	}
	if !permissions.IsExecutable(uint16(info.Mode().Perm())) {
		return fmt.Errorf("%w: %s", apperrors.ErrScriptPerms, scriptPath)
	}
	return nil
}

// VerifyBundleTree runs the full installation checks for a bundle and
// returns the collected failures. Passing checks print progress so callers
// get a full report either way.
func VerifyBundleTree(paths *BundlePaths, logger hclog.Logger) []string {
	var failures []string

	check := func(label string, err error) {
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", label, err))
			logger.Debug("Verification check failed", "check", label, "error", err)
		} else {
			fmt.Printf("✓ %s\n", label)
		}
	}

	check("Bundle layout", verifyLayout(paths))
	check("Shim executable", verifyShim(paths))
	check("Launcher script", VerifyScript(paths.LauncherScript()))
	check("Info.plist", verifyInfoPlist(paths))
	check("PkgInfo", verifyPkgInfo(paths))

	level := getValidationLevel()
	if level == ValidationNone {
		fmt.Println("- Seal checks skipped (validation disabled)")
		return failures
	}

	seal, err := LoadSeal(paths.SealFile())
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSeal) && level >= ValidationStandard {
			fmt.Println("- No seal present, skipping integrity checks")
			return failures
		}
		failures = append(failures, fmt.Sprintf("Seal: %v", err))
		return failures
	}

	if level <= ValidationStandard {
		check("Seal signature", VerifySealSignature(seal))
	} else {
		fmt.Println("- Seal signature check skipped")
	}

	entryFailures := VerifySealEntries(paths, seal, level, logger)
	if len(entryFailures) == 0 {
		fmt.Printf("✓ Sealed files intact (%d checked)\n", len(seal.Entries))
	}
	failures = append(failures, entryFailures...)

	return failures
}

func verifyLayout(paths *BundlePaths) error {
	if !paths.ContentsExist() {
		return apperrors.ErrNotABundle
	}
	return nil
}

func verifyShim(paths *BundlePaths) error {
	info, err := os.Stat(paths.Shim())
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.ErrShimMissing
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file")
	}
	if !permissions.IsExecutable(uint16(info.Mode().Perm())) {
		return fmt.Errorf("not executable")
	}
	return nil
}

func verifyInfoPlist(paths *BundlePaths) error {
	values, err := LoadInfoPlist(paths.InfoPlist())
	if err != nil {
		return err
	}
	executable := values["CFBundleExecutable"]
	if executable == "" {
		return fmt.Errorf("missing CFBundleExecutable")
	}
	if executable != paths.Name() {
		return fmt.Errorf("CFBundleExecutable %q does not match bundle name %q", executable, paths.Name())
	}
	return nil
}

func verifyPkgInfo(paths *BundlePaths) error {
	data, err := os.ReadFile(paths.PkgInfo())
	if err != nil {
		return err
	}
	if !strings.HasPrefix(string(data), BundlePackageType) {
		return fmt.Errorf("unexpected contents %q", strings.TrimSpace(string(data)))
	}
	return nil
}
