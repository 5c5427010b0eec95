package version

// Set at build time:
//
//	go build -ldflags "-X microservices-demo/internal/version.Version=1.0.0 -X microservices-demo/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
