// Package transport implements the RTP-over-UDP sender for Discord voice:
// 12-byte RTP header framing plus one of Discord's two negotiated
// encryption modes, XSalsa20-Poly1305 or AES-256-GCM.
package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/pion/rtp"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// rtpVersionByte is the RTP version (2) plus padding/extension/CSRC
	// count flags, all unset, as Discord expects.
	rtpVersionByte = 0x80
	// rtpOpusPayloadType is the payload type Discord uses for Opus audio.
	rtpOpusPayloadType = 0x78
	// rtpTimestampStep is how much the RTP timestamp advances per 20ms
	// frame at 48kHz (960 samples/channel).
	rtpTimestampStep = 960
	// packetBufCapacity is a reusable send-buffer sized for one Ethernet
	// MTU, avoiding a per-frame allocation on the hot send path.
	packetBufCapacity = 1500

	modeAES256GCMRTPSize = "aead_aes256_gcm_rtpsize"
)

// cipherMode is which encryption scheme a Backend negotiated with Discord.
type cipherMode int

const (
	cipherXSalsa20Poly1305 cipherMode = iota
	cipherAES256GCM
)

// Backend sends Opus packets to Discord's voice UDP endpoint, framing
// each with a 12-byte RTP header and encrypting the payload under the
// negotiated cipher mode. A Backend is not safe for concurrent use — the
// speak loop is the only caller.
type Backend struct {
	conn *net.UDPConn
	addr *net.UDPAddr
	ssrc uint32

	mode cipherMode
	key  [32]byte
	gcm  cipher.AEAD

	sequence  uint16
	timestamp uint32
	nonce     uint32

	packetBuf []byte
}

// NewBackend dials a UDP socket to addr and builds a Backend using the
// cipher named by modeName ("aead_aes256_gcm_rtpsize" selects AES-GCM;
// anything else falls back to XSalsa20-Poly1305, Discord's default).
func NewBackend(addr *net.UDPAddr, ssrc uint32, secretKey [32]byte, modeName string) (*Backend, error) {
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial udp %s: %w", addr, err)
	}

	b := &Backend{
		conn:      conn,
		addr:      addr,
		ssrc:      ssrc,
		key:       secretKey,
		packetBuf: make([]byte, 0, packetBufCapacity),
	}

	if modeName == modeAES256GCMRTPSize {
		block, err := aes.NewCipher(secretKey[:])
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("transport: aes cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("transport: gcm: %w", err)
		}
		b.mode = cipherAES256GCM
		b.gcm = gcm
	} else {
		b.mode = cipherXSalsa20Poly1305
	}

	return b, nil
}

// SendOpusPacket encrypts and sends one Opus payload, advancing the RTP
// sequence/timestamp counters (both wrap on overflow, which is
// intentional — RTP fields are modular).
func (b *Backend) SendOpusPacket(payload []byte) error {
	header := rtp.Header{
		Version:        2,
		PayloadType:    rtpOpusPayloadType,
		SequenceNumber: b.sequence,
		Timestamp:      b.timestamp,
		SSRC:           b.ssrc,
	}
	b.sequence++
	b.timestamp += rtpTimestampStep

	headerBytes, err := header.Marshal()
	if err != nil {
		return fmt.Errorf("transport: marshal rtp header: %w", err)
	}
	// header.Marshal always emits exactly 12 bytes for a header with no
	// extensions or CSRCs, matching Discord's fixed-size RTP framing.
	headerBytes[0] = rtpVersionByte

	b.packetBuf = b.packetBuf[:0]
	b.packetBuf = append(b.packetBuf, headerBytes...)

	switch b.mode {
	case cipherAES256GCM:
		b.nonce++
		var nonceBytes [12]byte
		binary.BigEndian.PutUint32(nonceBytes[:4], b.nonce)

		b.packetBuf = b.gcm.Seal(b.packetBuf, nonceBytes[:], payload, headerBytes)
		b.packetBuf = binary.BigEndian.AppendUint32(b.packetBuf, b.nonce)

	default:
		var nonce [24]byte
		copy(nonce[:12], headerBytes)

		// secretbox's combined output is tag(16) || ciphertext, but
		// Discord's wire format wants ciphertext followed by a detached
		// tag — reorder after sealing.
		sealed := secretbox.Seal(nil, payload, &nonce, &b.key)
		b.packetBuf = append(b.packetBuf, sealed[secretbox.Overhead:]...)
		b.packetBuf = append(b.packetBuf, sealed[:secretbox.Overhead]...)
	}

	if _, err := b.conn.Write(b.packetBuf); err != nil {
		return fmt.Errorf("transport: udp send: %w", err)
	}
	return nil
}

// Close releases the underlying UDP socket.
func (b *Backend) Close() error {
	return b.conn.Close()
}
