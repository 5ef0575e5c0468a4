// Package version records the build identity of the time server.
package version

// Version is the server version. Overridable at link time:
//
//	-ldflags "-X github.com/utcsync/mcp-time-server/pkg/version.Version=1.2.3"
var Version = "1.0.0"

// Name is the wire-visible server name reported in initialize results
// and the /health document.
const Name = "mcp-utc-time-server"
