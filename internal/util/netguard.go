package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrBlockedAddress is returned when a fetch would reach a loopback, private or otherwise non-public address
var ErrBlockedAddress = errors.New("destination address not allowed")

var reservedNets = mustParseCIDRs(
	"0.0.0.0/8",     // this network
	"100.64.0.0/10", // carrier-grade NAT
	"192.0.0.0/24",  // IETF protocol assignments
	"198.18.0.0/15", // benchmarking
	"240.0.0.0/4",   // reserved
	"64:ff9b::/96",  // NAT64, may translate to private IPv4
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPublicIP reports whether ip is routable on the public internet
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return false
	}
	for _, n := range reservedNets {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}

// CheckHost resolves host and fails if any of its addresses is not public.
// IP literals are checked without a lookup.
func CheckHost(ctx context.Context, host string) error {
	if ip := net.ParseIP(host); ip != nil {
		if !IsPublicIP(ip) {
			return fmt.Errorf("%s: %w", host, ErrBlockedAddress)
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, addr := range addrs {
		if !IsPublicIP(addr.IP) {
			return fmt.Errorf("%s resolves to %s: %w", host, addr.IP, ErrBlockedAddress)
		}
	}
	return nil
}

// GuardedDialControl is a net.Dialer Control hook that refuses non-public
// addresses. It runs on the resolved IP, so DNS rebinding cannot slip past it.
func GuardedDialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%s: %w", address, ErrBlockedAddress)
	}
	if !IsPublicIP(net.ParseIP(host)) {
		return fmt.Errorf("%s: %w", host, ErrBlockedAddress)
	}
	return nil
}
