package routeplanner

import (
	"context"
	"net"
)

// DialContext returns a dial function suitable for http.Transport.DialContext
// that binds the local address to whatever planner.Address() returns,
// falling back to an unbound dial when planner is nil or exhausted. On a
// connection failure with a bound address, the caller is expected to
// decide whether to call MarkFailing on a *RotatingIP; this helper only
// performs the bind.
func DialContext(planner Planner) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := &net.Dialer{}
		if planner != nil {
			if local, ok := planner.Address(); ok {
				dialer.LocalAddr = &net.TCPAddr{IP: local}
			}
		}
		return dialer.DialContext(ctx, network, addr)
	}
}
