// Package version exposes the build-time version string, overridable via
// linker flags (-X github.com/sbak-archive/sbak/internal/version.Version=...).
package version

// Version is the sbak build version. Release builds override this with
// -ldflags "-X .../version.Version=v1.2.3"; unreleased builds report "dev".
var Version = "dev"
