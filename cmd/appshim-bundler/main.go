package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/bundleworks/appshim/pkg"
	"github.com/bundleworks/appshim/pkg/archive"
	_ "github.com/bundleworks/appshim/pkg/archive/compress" // register archive codecs
	"github.com/bundleworks/appshim/pkg/bundle"
	"github.com/bundleworks/appshim/pkg/logging"
)

var (
	manifestPath   string
	outputPath     string
	shimBin        string
	privateKeyPath string
	publicKeyPath  string
	keySeed        string
	logLevel       string
	archiveFormat  string
	archiveOutput  string
	unpackDest     string
	rootCmd        *cobra.Command
	versionFlag    bool
)

func getBuilderTimestamp() string {
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

func init() {
	rootCmd = &cobra.Command{
		Use:   "appshim-bundler",
		Short: "Build macOS application bundles around shell launchers",
		Long:  `Build macOS application bundles around shell launchers`,
		Run:   buildBundle,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to manifest, JSON or YAML (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path for the .app bundle (defaults to <name>.app)")
	rootCmd.Flags().StringVar(&shimBin, "launcher-bin", "", "Path to the native shim binary")
	rootCmd.Flags().StringVar(&privateKeyPath, "private-key", "", "Path to private key (PEM format)")
	rootCmd.Flags().StringVar(&publicKeyPath, "public-key", "", "Path to public key (PEM format, optional if private key provided)")
	rootCmd.Flags().StringVar(&keySeed, "key-seed", "", "Seed for deterministic key generation")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	if err := rootCmd.MarkFlagRequired("manifest"); err != nil {
		panic(err)
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <bundle.app>",
		Short: "Verify a built bundle against its seal",
		Args:  cobra.ExactArgs(1),
		Run:   verifyBundle,
	}

	archiveCmd := &cobra.Command{
		Use:   "archive <bundle.app>",
		Short: "Pack a built bundle into a distribution archive",
		Args:  cobra.ExactArgs(1),
		Run:   archiveBundle,
	}
	archiveCmd.Flags().StringVar(&archiveFormat, "format", bundle.DefaultArchiveFormat, "Archive format (tar.gz or tar.bz2)")
	archiveCmd.Flags().StringVar(&archiveOutput, "output", "", "Archive output path (defaults next to the bundle)")

	unpackCmd := &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Extract a distribution archive",
		Args:  cobra.ExactArgs(1),
		Run:   unpackArchive,
	}
	unpackCmd.Flags().StringVar(&unpackDest, "dest", ".", "Destination directory")

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 signing key pair",
		Run:   generateKeys,
	}
	keygenCmd.Flags().StringVar(&privateKeyPath, "private-key", "appshim.key", "Private key output path")
	keygenCmd.Flags().StringVar(&publicKeyPath, "public-key", "appshim.pub", "Public key output path")

	rootCmd.AddCommand(verifyCmd, archiveCmd, unpackCmd, keygenCmd)
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("appshim-bundler %s\n", bundle.Version)
		fmt.Printf("Built: %s\n", getBuilderTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildBundle(cmd *cobra.Command, args []string) {
	if versionFlag {
		fmt.Printf("appshim-bundler %s\n", bundle.Version)
		fmt.Printf("Built: %s\n", getBuilderTimestamp())
		return
	}
	pkg.BuildBundleWithLogLevel(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed, logLevel)
}

func verifyBundle(cmd *cobra.Command, args []string) {
	pkg.VerifyBundleWithLogger(args[0], newCommandLogger("appshim-verify"))
}

func archiveBundle(cmd *cobra.Command, args []string) {
	logger := newCommandLogger("appshim-archive")
	bundlePath := args[0]

	output := archiveOutput
	if output == "" {
		format, err := archive.ResolveFormat(archiveFormat)
		if err != nil {
			logger.Error("❌ Invalid archive format", "error", err)
			os.Exit(bundle.ExitInvalidArgs)
		}
		output = strings.TrimSuffix(bundlePath, bundle.BundleExtension) + format.Extension
	}

	checksum, err := archive.Pack(bundlePath, output, archiveFormat, logger)
	if err != nil {
		logger.Error("❌ Failed to create archive", "error", err)
		os.Exit(bundle.ExitIOError)
	}
	if err := archive.WriteChecksumFile(output, checksum); err != nil {
		logger.Error("❌ Failed to write checksum file", "error", err)
		os.Exit(bundle.ExitIOError)
	}
	fmt.Printf("%s  %s\n", checksum, output)
}

func unpackArchive(cmd *cobra.Command, args []string) {
	logger := newCommandLogger("appshim-unpack")
	if err := archive.Unpack(args[0], unpackDest, logger); err != nil {
		logger.Error("❌ Failed to unpack archive", "error", err)
		os.Exit(bundle.ExitIOError)
	}
}

func generateKeys(cmd *cobra.Command, args []string) {
	if err := bundle.GenerateKeyFiles(privateKeyPath, publicKeyPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(bundle.ExitIOError)
	}
	fmt.Printf("Wrote %s and %s\n", privateKeyPath, publicKeyPath)
}

func newCommandLogger(name string) hclog.Logger {
	level := logLevel
	if level == "" {
		level = logging.GetLogLevel()
	}
	return logging.NewLogger(name, level, nil)
}
