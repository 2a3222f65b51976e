package kvstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
	"github.com/ugorji/go/codec"
)

var msgpack = &codec.MsgpackHandle{}

func init() {
	msgpack.RawToString = true
	msgpack.WriteExt = true
}

func encode(v interface{}) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, msgpack).Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return buf, nil
}

func decode(data []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(data, msgpack).Decode(v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

var errCorruptBlock = errors.New("corrupt compressed block")

// Compressed blocks are framed as a 4-byte big-endian raw length, a mode
// byte (0 raw, 1 lz4) and the body. Empty input is the length alone.
const (
	modeRaw byte = 0
	modeLZ4 byte = 1
)

func compress(data []byte) ([]byte, error) {
	header := make([]byte, 5, 5+lz4.CompressBlockBound(len(data)))
	binary.BigEndian.PutUint32(header, uint32(len(data)))
	if len(data) == 0 {
		return header[:4], nil
	}
	body := header[5:cap(header)]
	n, err := lz4.CompressBlock(data, body, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 || n >= len(data) {
		header[4] = modeRaw
		return append(header, data...), nil
	}
	header[4] = modeLZ4
	return header[:5+n], nil
}

func decompress(block []byte) ([]byte, error) {
	if len(block) < 4 {
		return nil, errCorruptBlock
	}
	size := int(binary.BigEndian.Uint32(block))
	if size == 0 {
		return []byte{}, nil
	}
	if len(block) < 5 {
		return nil, errCorruptBlock
	}
	body := block[5:]
	switch block[4] {
	case modeRaw:
		if len(body) != size {
			return nil, errCorruptBlock
		}
		return append([]byte(nil), body...), nil
	case modeLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if n != size {
			return nil, errCorruptBlock
		}
		return out, nil
	}
	return nil, errCorruptBlock
}
