package discovery

import (
	"errors"
	"strings"
	"time"

	"github.com/lens-devtools/lens-go/pkg/version"
)

// mDNS constants.
const (
	// ServiceType is the mDNS service type advertised by Lens desktops.
	ServiceType = "_lens._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// BrowseTimeout is the default timeout for browse operations.
	BrowseTimeout = 10 * time.Second
)

// ErrNotFound indicates no desktop was found before the deadline.
var ErrNotFound = errors.New("no desktop found")

// DesktopService describes a discovered Lens desktop.
type DesktopService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the advertised hostname.
	Host string

	// Port is the advertised secure port.
	Port uint16

	// Addresses are the resolved IP addresses, aggregated across
	// interfaces.
	Addresses []string

	// Version is the desktop application version from the TXT record,
	// if advertised.
	Version string
}

// Address returns the first resolved address, or the hostname when no
// address resolved.
func (s *DesktopService) Address() string {
	if len(s.Addresses) > 0 {
		return s.Addresses[0]
	}
	return strings.TrimSuffix(s.Host, ".")
}

// Compatible reports whether the advertised desktop version shares a major
// version with this library. Desktops that advertise no version, or a
// version that does not parse, are assumed compatible.
func (s *DesktopService) Compatible() bool {
	if s.Version == "" {
		return true
	}
	advertised, err := version.Parse(s.Version)
	if err != nil {
		return true
	}
	current, _ := version.Parse(version.Current)
	return current.Compatible(advertised)
}
