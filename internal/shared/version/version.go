package version

// Version is overridden at build time with -ldflags "-X aspectwatch/internal/shared/version.Version=...".
var Version = "1.0.0"
