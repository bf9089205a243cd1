package pkg

import (
	"github.com/bundleworks/appshim/pkg/bundle"
)

func BuildBundle(manifestPath, outputPath, shimBin string) {
	bundle.BuildWithOptions(manifestPath, outputPath, shimBin, "", "", "")
}

func BuildBundleWithOptions(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed string) {
	bundle.BuildWithOptions(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed)
}

func BuildBundleWithLogLevel(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed, logLevel string) {
	bundle.BuildWithLogLevel(manifestPath, outputPath, shimBin, privateKeyPath, publicKeyPath, keySeed, logLevel)
}

func LaunchBundle(args []string) {
	bundle.Launch(args)
}
