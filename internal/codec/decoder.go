package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/feedtools/bookreplay/internal/model"
)

// Decode failures. Both abort the decode loop; neither is retryable.
var (
	// ErrCorruptBlock signals a framing or content inconsistency, commonly a
	// capture written by an incompatible format version.
	ErrCorruptBlock = errors.New("corrupt block")

	// ErrUnexpectedEOF signals a record that was declared but not fully
	// present in the stream.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")
)

// Record is the closed variant produced by the decoder. Kind selects which
// payload field is valid: Depth for KindDepth, Trade for KindTrade, neither
// for any other kind (header only, payload skipped).
type Record struct {
	Kind   model.Kind
	Header model.Header
	Depth  model.DepthUpdate
	Trade  model.TradeEvent
}

// Fixed payload widths following the header.
const (
	depthPayload = model.DepthSize - model.HeaderSize
	tradePayload = model.TradeSize - model.HeaderSize
)

// Decoder reads records sequentially from a byte stream.
// Not safe for concurrent use.
type Decoder struct {
	r       io.Reader
	header  [model.HeaderSize]byte
	scratch []byte
}

// NewDecoder creates a decoder positioned at the start of a record stream.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       r,
		scratch: make([]byte, 64),
	}
}

// Next decodes exactly one record. It returns io.EOF when the stream ends
// cleanly on a record boundary. Any other error is fatal to the stream:
// ErrUnexpectedEOF for truncation, ErrCorruptBlock for an impossible size,
// or an underlying read error from the byte source.
func (d *Decoder) Next() (Record, error) {
	if _, err := io.ReadFull(d.r, d.header[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return Record{}, fmt.Errorf("%w: truncated header", ErrUnexpectedEOF)
		}
		return Record{}, err
	}

	hdr := model.Header{
		Kind: model.Kind(int16(binary.LittleEndian.Uint16(d.header[0:2]))),
		Size: binary.LittleEndian.Uint16(d.header[2:4]),
		Time: int64(binary.LittleEndian.Uint64(d.header[4:12])),
	}

	if int(hdr.Size) < model.HeaderSize {
		return Record{}, fmt.Errorf("%w: declared size %d below header size", ErrCorruptBlock, hdr.Size)
	}

	payload := int(hdr.Size) - model.HeaderSize
	if payload > len(d.scratch) {
		d.scratch = make([]byte, payload)
	}
	buf := d.scratch[:payload]
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, fmt.Errorf("%w: truncated %s payload (declared %d bytes)",
				ErrUnexpectedEOF, hdr.Kind, hdr.Size)
		}
		return Record{}, err
	}

	rec := Record{Kind: hdr.Kind, Header: hdr}

	switch hdr.Kind {
	case model.KindDepth:
		if payload < depthPayload {
			return Record{}, fmt.Errorf("%w: depth record size %d, need at least %d",
				ErrCorruptBlock, hdr.Size, model.DepthSize)
		}
		rec.Depth = model.DepthUpdate{
			Header: hdr,
			Price:  int64(binary.LittleEndian.Uint64(buf[0:8])),
			Volume: int64(binary.LittleEndian.Uint64(buf[8:16])),
			Flags:  model.Flags(buf[16]),
		}

	case model.KindTrade:
		if payload < tradePayload {
			return Record{}, fmt.Errorf("%w: trade record size %d, need at least %d",
				ErrCorruptBlock, hdr.Size, model.TradeSize)
		}
		rec.Trade = model.TradeEvent{
			Header: hdr,
			ID:     int64(binary.LittleEndian.Uint64(buf[0:8])),
			Price:  int64(binary.LittleEndian.Uint64(buf[8:16])),
			Volume: int64(binary.LittleEndian.Uint64(buf[16:24])),
			Type:   buf[24],
		}

	default:
		// Unrecognized kind: payload already consumed, header preserved.
	}

	return rec, nil
}
