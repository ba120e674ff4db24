package internal

// Version is the current application version. It is set at build time via ldflags.
var Version = "unknown"
