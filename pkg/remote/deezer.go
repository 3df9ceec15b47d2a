package remote

import (
	"crypto/cipher"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blowfish"
)

const deezerChunkSize = 2048

// deezerIV is the fixed CBC IV Deezer's stream cipher uses for every
// track (the key, not the IV, carries the per-track entropy).
var deezerIV = [8]byte{0, 1, 2, 3, 4, 5, 6, 7}

// DeezerReader decrypts a Deezer-style CDN stream: every third 2048-byte
// chunk (chunk 0, 3, 6, ...) is Blowfish-CBC encrypted with a per-track
// key derived from the track ID and a master key; the rest pass through
// unmodified. Wraps an HTTPReader for the underlying transport.
type DeezerReader struct {
	src io.ReadSeeker
	key [16]byte

	overflow  []byte
	decrypted []byte
	skip      int
	chunkNum  int64
}

// NewDeezerReader derives the per-track key from trackID and masterKey
// and wraps src for decrypted sequential reads.
func NewDeezerReader(src io.ReadSeeker, trackID, masterKey string) (*DeezerReader, error) {
	key, err := deezerKey(trackID, masterKey)
	if err != nil {
		return nil, err
	}
	return &DeezerReader{src: src, key: key}, nil
}

func deezerKey(trackID, masterKey string) ([16]byte, error) {
	var key [16]byte
	if len(masterKey) < 16 {
		return key, fmt.Errorf("remote: deezer master key too short")
	}
	sum := md5.Sum([]byte(trackID))
	hexDigest := hex.EncodeToString(sum[:])
	master := []byte(masterKey)
	for i := 0; i < 16; i++ {
		key[i] = hexDigest[i] ^ hexDigest[i+16] ^ master[i]
	}
	return key, nil
}

func (r *DeezerReader) Read(p []byte) (int, error) {
	for {
		if r.skip > 0 && len(r.decrypted) > 0 {
			n := min(r.skip, len(r.decrypted))
			r.decrypted = r.decrypted[n:]
			r.skip -= n
		}

		if r.skip == 0 && len(r.decrypted) > 0 {
			n := copy(p, r.decrypted)
			r.decrypted = r.decrypted[n:]
			return n, nil
		}

		readSomething := false
		chunk := make([]byte, 4096)
		for len(r.overflow) < deezerChunkSize {
			n, err := r.src.Read(chunk)
			if n > 0 {
				r.overflow = append(r.overflow, chunk[:n]...)
				readSomething = true
			}
			if err != nil {
				break
			}
		}

		if !readSomething && len(r.overflow) == 0 && len(r.decrypted) == 0 {
			return 0, io.EOF
		}

		for len(r.overflow) >= deezerChunkSize {
			chunkData := r.overflow[:deezerChunkSize]
			r.overflow = r.overflow[deezerChunkSize:]

			if r.chunkNum%3 == 0 {
				decrypted, err := decryptDeezerChunk(chunkData, r.key)
				if err != nil {
					r.decrypted = append(r.decrypted, chunkData...)
				} else {
					r.decrypted = append(r.decrypted, decrypted...)
				}
			} else {
				r.decrypted = append(r.decrypted, chunkData...)
			}
			r.chunkNum++
		}

		if !readSomething && len(r.overflow) > 0 {
			r.decrypted = append(r.decrypted, r.overflow...)
			r.overflow = r.overflow[:0]
		}
	}
}

func decryptDeezerChunk(chunk []byte, key [16]byte) ([]byte, error) {
	block, err := blowfish.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("remote: deezer cipher init: %w", err)
	}
	if len(chunk)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("remote: deezer chunk not block-aligned")
	}
	out := make([]byte, len(chunk))
	mode := cipher.NewCBCDecrypter(block, deezerIV[:])
	mode.CryptBlocks(out, chunk)
	return out, nil
}

// Seek aligns to the nearest preceding chunk boundary and discards the
// leading skip bytes from the next decrypted chunk, since Blowfish-CBC
// decryption must start at a chunk boundary.
func (r *DeezerReader) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, fmt.Errorf("remote: deezer reader only supports SeekStart")
	}
	alignedPos := (offset / deezerChunkSize) * deezerChunkSize
	skip := int(offset - alignedPos)

	newPos, err := r.src.Seek(alignedPos, io.SeekStart)
	if err != nil {
		return 0, err
	}

	r.overflow = r.overflow[:0]
	r.decrypted = r.decrypted[:0]
	r.skip = skip
	r.chunkNum = alignedPos / deezerChunkSize
	return newPos + int64(skip), nil
}
