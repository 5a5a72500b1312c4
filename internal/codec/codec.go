// Package codec implements the canonical serialization and commitment-hash
// computation for service records (§4.1), grounded in CAliasIndex::Serialize
// and the "rand" commitment path of original_source/src/alias.cpp.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// writer accumulates a record's canonical byte form: length-prefixed byte
// strings and wire.VarInt-encoded heights/enums, fixed field order.
type writer struct {
	buf bytes.Buffer
}

func newWriter() *writer { return &writer{} }

func (w *writer) bytes(b []byte) {
	wire.WriteVarInt(&w.buf, 0, uint64(len(b)))
	w.buf.Write(b)
}

func (w *writer) str(s string) { w.bytes([]byte(s)) }

func (w *writer) varint(v uint64) { wire.WriteVarInt(&w.buf, 0, v) }

func (w *writer) u8(v uint8) { w.buf.WriteByte(v) }

func (w *writer) boolean(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *writer) i64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

func (w *writer) Bytes() []byte { return w.buf.Bytes() }

// reader is the inverse of writer, used by Decode* for round-tripping in
// tests and for the alias-update "empty data" side channel (§4.4).
type reader struct {
	r *bytes.Reader
}

func newReader(data []byte) *reader { return &reader{r: bytes.NewReader(data)} }

func (r *reader) bytes() ([]byte, error) {
	n, err := wire.ReadVarInt(r.r, 0)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.r.Len()) {
		return nil, fmt.Errorf("codec: length-prefixed field exceeds remaining buffer")
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *reader) str() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) varint() (uint64, error) { return wire.ReadVarInt(r.r, 0) }

func (r *reader) u8() (uint8, error) { return r.r.ReadByte() }

func (r *reader) boolean() (bool, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *reader) i64() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (r *reader) done() bool { return r.r.Len() == 0 }

// scriptNumBytes encodes n the way Bitcoin script numbers are pushed:
// little-endian magnitude, minimally sized, with the sign carried in the
// high bit of the last byte (adding a zero byte if the magnitude's natural
// top byte already has its high bit set). Grounded in alias.cpp's use of
// CScriptNum when building the on-chain commitment push.
func scriptNumBytes(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	abs := uint64(n)
	if neg {
		abs = uint64(-n)
	}
	var out []byte
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	if out[len(out)-1]&0x80 != 0 {
		if neg {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	} else if neg {
		out[len(out)-1] |= 0x80
	}
	return out
}

// CommitmentHash implements §4.1: double-SHA256 the canonical bytes, take
// the low 64 bits as a signed little-endian integer, minimally encode it as
// a script number, hex-encode. The low 64 bits are taken from the digest's
// first 8 bytes (chainhash digests are already stored internally
// little-endian-first, matching uint256::GetUint64(0) in the original).
func CommitmentHash(data []byte) string {
	h := chainhash.DoubleHashB(data)
	low64 := int64(binary.LittleEndian.Uint64(h[:8]))
	return fmt.Sprintf("%x", scriptNumBytes(low64))
}
