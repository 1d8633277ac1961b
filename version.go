package easel

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/easel.Version=v1.2.3".
var Version = "0.1.0-dev"
