//go:build !tinygo

package internal

import "net"

// InterfaceByName looks up a system network interface by name. It is
// gated behind the !tinygo build tag because TinyGo targets typically
// have no operating-system network interface table to query; such
// targets construct a netif.Iface directly from hardware configuration
// instead.
func InterfaceByName(name string) (*net.Interface, error) {
	return net.InterfaceByName(name)
}
