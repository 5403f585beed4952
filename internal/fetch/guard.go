package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when a URL leads to a loopback, private,
// link-local or otherwise internal address.
var ErrBlockedAddress = errors.New("address is not publicly routable")

// nonPublicPrefixes are ranges netip has no predicate for.
var nonPublicPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// lookupNetIP resolves host names; tests replace it.
var lookupNetIP = net.DefaultResolver.LookupNetIP

// IsPublicAddr reports whether addr may be fetched on a user's behalf.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() ||
		addr.IsUnspecified() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() {
		return false
	}
	for _, p := range nonPublicPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

func blocked(urlStr, what string) error {
	return &Error{URL: urlStr, Message: fmt.Sprintf("%s is not allowed", what), Cause: ErrBlockedAddress}
}

// checkHostLiteral rejects hosts that are internal without a DNS lookup:
// localhost names and non-public IP literals.
func checkHostLiteral(urlStr, host string) error {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return blocked(urlStr, "host "+host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !IsPublicAddr(addr) {
		return blocked(urlStr, "address "+addr.String())
	}
	return nil
}

// CheckURL validates urlStr and resolves its host, failing when any
// resolved address is not public.
func CheckURL(ctx context.Context, urlStr string) error {
	if err := ValidateURL(urlStr); err != nil {
		return err
	}
	parsed, _ := url.Parse(urlStr)
	host := parsed.Hostname()
	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}
	addrs, err := lookupNetIP(ctx, "ip", host)
	if err != nil {
		return &Error{URL: urlStr, Message: "failed to resolve host", Cause: err}
	}
	for _, addr := range addrs {
		if !IsPublicAddr(addr) {
			return blocked(urlStr, "address "+addr.String())
		}
	}
	return nil
}

// guardedDialer refuses connections to non-public addresses. Control runs
// after name resolution and for every redirect hop.
func guardedDialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout: timeout,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return err
			}
			if !IsPublicAddr(addr) {
				return fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
			}
			return nil
		},
	}
}
