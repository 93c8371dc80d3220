package version

// Version is set at build time via
// -ldflags "-X github.com/odyssey/ruleforge/internal/version.Version=v1.2.3".
// It is written into the output manifest so that newer manifests can be
// detected by older binaries.
var Version = "dev"
