package build

// Version is the release of the service, set at link time:
//
//	go build -ldflags "-X github.com/storacha/todos/pkg/build.Version=v1.2.3"
var Version = "v0.0.0-dev"
