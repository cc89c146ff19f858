// Package version holds build metadata stamped at link time.
package version

// Version is set via:
//
//	go build -ldflags "-X github.com/Evanescentum/etcd-gui/pkg/version.Version=v0.3.0"
var Version = "dev"
