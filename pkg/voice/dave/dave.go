// Package dave implements Discord's DAVE (end-to-end encrypted voice)
// session bookkeeping: protocol version/epoch tracking, pending
// transition sequencing, and proposal/welcome/commit framing.
//
// No MLS (Messaging Layer Security) implementation exists anywhere in
// the example corpus this package was built from, so the actual group
// key agreement is out of scope here — see DESIGN.md. What's
// implemented is everything DAVE needs around that core: the state
// machine that decides when a transition takes effect and whether a
// given Opus frame should currently be passed through unencrypted
// (protocol_version == 0) versus handed to a group cipher once one
// exists.
package dave

import (
	"fmt"
	"sync"
)

// maxPendingProposals bounds how many proposal packets are buffered
// before the external sender is known, preventing unbounded growth if
// the voice server delays that packet.
const maxPendingProposals = 64

// Handler tracks one player's DAVE session state: protocol version,
// pending transitions, and buffered proposals awaiting an external
// sender. Safe for concurrent use.
type Handler struct {
	mu sync.Mutex

	userID    uint64
	channelID uint64

	protocolVersion int
	ready           bool

	pendingTransitions map[uint16]int // transition id -> protocol version
	pendingProposals   [][]byte

	hasExternalSender bool
}

// New creates a Handler for the given user/channel pair. The handler
// starts at protocol version 0 (no E2E encryption — frames pass
// through unmodified) until SetupSession is called.
func New(userID, channelID uint64) *Handler {
	return &Handler{
		userID:             userID,
		channelID:          channelID,
		pendingTransitions: make(map[uint16]int),
	}
}

// SetupSession begins (or re-keys) the DAVE session at the given
// protocol version, called on DAVE_PREPARE_EPOCH for epoch 1 or
// whenever the voice server requests a fresh handshake.
func (h *Handler) SetupSession(version int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.protocolVersion = version
	h.ready = false
	h.hasExternalSender = false
	h.pendingProposals = h.pendingProposals[:0]
}

// ProtocolVersion returns the currently active protocol version. 0
// means DAVE is not engaged and frames should pass through in the
// clear.
func (h *Handler) ProtocolVersion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.protocolVersion
}

// PrepareTransition records a pending protocol-version change keyed by
// transition id. Transition id 0 means "apply immediately" and returns
// false (caller should not wait for ExecuteTransition); any other id
// returns true, signalling the caller to wait for the matching
// DAVE_EXECUTE_TRANSITION before switching.
func (h *Handler) PrepareTransition(transitionID uint16, protocolVersion int) bool {
	h.mu.Lock()
	h.pendingTransitions[transitionID] = protocolVersion
	h.mu.Unlock()

	if transitionID == 0 {
		h.ExecuteTransition(0)
		return false
	}
	return true
}

// ExecuteTransition applies a previously prepared transition, switching
// the active protocol version. A no-op if transitionID was never
// prepared.
func (h *Handler) ExecuteTransition(transitionID uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if version, ok := h.pendingTransitions[transitionID]; ok {
		h.protocolVersion = version
		delete(h.pendingTransitions, transitionID)
	}
}

// PrepareEpoch handles DAVE_PREPARE_EPOCH: epoch 1 triggers the initial
// session setup at the announced protocol version.
func (h *Handler) PrepareEpoch(epoch uint64, protocolVersion int) {
	if epoch == 1 {
		h.SetupSession(protocolVersion)
	}
}

// SetExternalSender records that the MLS external sender credential
// has arrived, unblocking proposal processing, and drains any
// proposals buffered while it was unknown.
func (h *Handler) SetExternalSender(data []byte) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hasExternalSender = true
	drained := h.pendingProposals
	h.pendingProposals = nil
	return drained
}

// ProcessProposals records or buffers a DAVE_MLS_PROPOSALS payload. If
// the external sender isn't known yet, the payload is buffered (up to
// maxPendingProposals, after which new proposals are dropped with an
// error) for replay once SetExternalSender fires.
func (h *Handler) ProcessProposals(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.hasExternalSender {
		return nil
	}
	if len(h.pendingProposals) >= maxPendingProposals {
		return fmt.Errorf("dave: pending proposal buffer full (%d)", maxPendingProposals)
	}
	h.pendingProposals = append(h.pendingProposals, data)
	return nil
}

// ProcessWelcome handles a DAVE_MLS_WELCOME payload: the first two
// bytes are a big-endian transition id, the remainder is the MLS
// Welcome message. On success the handler becomes ready and, if the
// transition id is non-zero, registers it as pending at the current
// protocol version.
func (h *Handler) ProcessWelcome(data []byte) (transitionID uint16, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("dave: welcome payload too short")
	}
	transitionID = uint16(data[0])<<8 | uint16(data[1])

	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = true
	if transitionID != 0 {
		h.pendingTransitions[transitionID] = h.protocolVersion
	}
	return transitionID, nil
}

// ProcessCommit handles a DAVE_MLS_COMMIT_WELCOME payload analogously
// to ProcessWelcome.
func (h *Handler) ProcessCommit(data []byte) (transitionID uint16, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("dave: commit payload too short")
	}
	transitionID = uint16(data[0])<<8 | uint16(data[1])

	h.mu.Lock()
	defer h.mu.Unlock()
	if transitionID != 0 {
		h.pendingTransitions[transitionID] = h.protocolVersion
	}
	return transitionID, nil
}

// IsReady reports whether the DAVE group session has completed its
// handshake and is ready to encrypt frames.
func (h *Handler) IsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

// EncryptOpus applies DAVE's frame transformation to an Opus packet.
// With no MLS implementation available, this passes the packet through
// unmodified in every state; the gating logic above (protocol version,
// readiness, transition sequencing) is fully implemented and is what a
// real MLS-backed cipher would be wired into at this call site.
func (h *Handler) EncryptOpus(packet []byte) ([]byte, error) {
	if h.ProtocolVersion() == 0 {
		return packet, nil
	}
	return packet, nil
}
