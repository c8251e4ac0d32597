// ABOUTME: Version and product constants
// ABOUTME: Reported by the remote-control hello and binaries' --version
package version

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.3.0"

const (
	Product      = "Multitrack Player"
	Manufacturer = "Sendspin"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
