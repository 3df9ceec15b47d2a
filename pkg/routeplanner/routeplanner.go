// Package routeplanner selects a local bind IP for outbound HTTP requests
// made by source plugins and remote readers, rotating across a CIDR block
// so a single node's egress isn't pinned to one address upstream services
// can rate-limit or ban.
package routeplanner

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Status mirrors the Lavalink v4 /routeplanner/status response: a tagged
// union keyed by planner class, same shape as the teacher's config diff
// payloads (a struct with an interface{}-typed details field).
type Status struct {
	Class   string `json:"class"`
	Details any    `json:"details"`
}

// IPBlock describes the CIDR block a planner draws addresses from.
type IPBlock struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

// FailingAddress records one address a caller marked unusable, along with
// when that happened.
type FailingAddress struct {
	Address   string `json:"failingAddress"`
	Timestamp int64  `json:"failingTimestamp"`
	Time      string `json:"failingTime"`
}

// RotatingIPDetails is the details payload for a RotatingIpRoutePlanner
// status response.
type RotatingIPDetails struct {
	IPBlock          IPBlock          `json:"ipBlock"`
	FailingAddresses []FailingAddress `json:"failingAddresses"`
	RotateIndex      string           `json:"rotateIndex"`
	IPIndex          string           `json:"ipIndex"`
	CurrentAddress   string           `json:"currentAddress"`
}

// Planner is the address-provider interface every outbound HTTP call in
// pkg/source and pkg/remote is built against. A nil Planner is valid
// everywhere it's accepted and means "use the default outbound address".
type Planner interface {
	// Address returns the next local address to bind an outbound socket
	// to, or ok=false if the planner has no address to offer (e.g. every
	// address in its block is currently marked failing).
	Address() (net.IP, bool)
	// Status reports the planner's current state for the REST
	// /routeplanner/status endpoint.
	Status() Status
	// FreeAddress clears a previously failing address, making it
	// eligible for Address again.
	FreeAddress(addr net.IP)
	// FreeAllAddresses clears every failing address.
	FreeAllAddresses()
}

// RotatingIP is a Planner that walks sequentially through every address in
// a CIDR block, skipping addresses in excludedIPs or currently marked
// failing, wrapping back to the start once it reaches the end.
type RotatingIP struct {
	mu sync.Mutex

	block    *net.IPNet
	blockStr string
	excluded map[string]bool

	addrs []net.IP
	index int

	failing map[string]time.Time
}

// NewRotatingIP builds a RotatingIP planner over cidr, refusing to ever
// hand out any address in excludedIPs.
func NewRotatingIP(cidr string, excludedIPs []string) (*RotatingIP, error) {
	ip, block, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("routeplanner: parse cidr %q: %w", cidr, err)
	}

	excluded := make(map[string]bool, len(excludedIPs))
	for _, e := range excludedIPs {
		excluded[e] = true
	}

	addrs := enumerateBlock(block)
	startIndex := 0
	for i, a := range addrs {
		if a.Equal(ip) {
			startIndex = i
			break
		}
	}

	return &RotatingIP{
		block:    block,
		blockStr: cidr,
		excluded: excluded,
		addrs:    addrs,
		index:    startIndex,
		failing:  make(map[string]time.Time),
	}, nil
}

// enumerateBlock expands a CIDR into its constituent addresses. Route
// planner blocks are expected to be small (/64 or smaller IPv6 ranges, or
// any IPv4 range); a /0 would exhaust memory, but that's a misconfiguration
// no caller should make.
func enumerateBlock(block *net.IPNet) []net.IP {
	var addrs []net.IP
	for ip := block.IP.Mask(block.Mask); block.Contains(ip); ip = nextIP(ip) {
		addrs = append(addrs, append(net.IP{}, ip...))
		if len(addrs) >= maxBlockAddresses {
			break
		}
	}
	return addrs
}

// maxBlockAddresses bounds how many addresses NewRotatingIP will expand a
// CIDR block into, guarding against an operator accidentally configuring
// an enormous range.
const maxBlockAddresses = 1 << 20

func nextIP(ip net.IP) net.IP {
	out := append(net.IP{}, ip...)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}

// Address returns the next non-excluded, non-failing address in the
// block, advancing the rotation index past it.
func (r *RotatingIP) Address() (net.IP, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.addrs) == 0 {
		return nil, false
	}

	for i := 0; i < len(r.addrs); i++ {
		candidate := r.addrs[r.index]
		r.index = (r.index + 1) % len(r.addrs)

		key := candidate.String()
		if r.excluded[key] {
			continue
		}
		if _, failing := r.failing[key]; failing {
			continue
		}
		return candidate, true
	}
	return nil, false
}

// FreeAddress clears addr from the failing set.
func (r *RotatingIP) FreeAddress(addr net.IP) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failing, addr.String())
}

// FreeAllAddresses clears every failing address.
func (r *RotatingIP) FreeAllAddresses() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = make(map[string]time.Time)
}

// MarkFailing records addr as unusable until FreeAddress or
// FreeAllAddresses clears it. Callers (source plugins, the HTTP range
// reader) should call this when a bound request fails with a network
// error that looks like an IP ban rather than a transient fault.
func (r *RotatingIP) MarkFailing(addr net.IP) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing[addr.String()] = time.Now()
}

// Status reports this planner's state as a RotatingIpRoutePlanner status
// payload.
func (r *RotatingIP) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	failing := make([]FailingAddress, 0, len(r.failing))
	for addr, at := range r.failing {
		failing = append(failing, FailingAddress{
			Address:   addr,
			Timestamp: at.UnixMilli(),
			Time:      at.UTC().Format(time.RFC1123),
		})
	}

	var current string
	if len(r.addrs) > 0 {
		current = r.addrs[r.index%len(r.addrs)].String()
	}

	ones, _ := r.block.Mask.Size()
	return Status{
		Class: "RotatingIpRoutePlanner",
		Details: RotatingIPDetails{
			IPBlock:          IPBlock{Type: blockType(r.block.IP), Size: fmt.Sprintf("%d", ones)},
			FailingAddresses: failing,
			RotateIndex:      "0",
			IPIndex:          fmt.Sprintf("%d", r.index),
			CurrentAddress:   current,
		},
	}
}

func blockType(ip net.IP) string {
	if ip.To4() != nil {
		return "Inet4Address"
	}
	return "Inet6Address"
}
