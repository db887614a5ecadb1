// Package discovery locates Lens desktop applications on the local
// network via mDNS. Desktops advertise a _lens._tcp service; devices
// browse for it to find the desktop's address when none is configured.
package discovery
