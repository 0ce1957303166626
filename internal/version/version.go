package version

// Version is set at build time with -ldflags "-X github.com/guiyumin/clipgrab/internal/version.Version=..."
var Version = "dev"
