package codec

import (
	"encoding/binary"

	"github.com/feedtools/bookreplay/internal/model"
)

// Encoders produce wire bytes for fixtures and round-trip tests. The header
// Size field is always derived from the record shape; the value on the input
// struct is ignored.

func appendHeader(dst []byte, kind model.Kind, size uint16, time int64) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(kind))
	dst = binary.LittleEndian.AppendUint16(dst, size)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(time))
	return dst
}

// AppendDepth appends the wire form of a depth update to dst.
func AppendDepth(dst []byte, d model.DepthUpdate) []byte {
	dst = appendHeader(dst, model.KindDepth, model.DepthSize, d.Time)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(d.Price))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(d.Volume))
	dst = append(dst, byte(d.Flags))
	return dst
}

// AppendTrade appends the wire form of a trade event to dst.
func AppendTrade(dst []byte, tr model.TradeEvent) []byte {
	dst = appendHeader(dst, model.KindTrade, model.TradeSize, tr.Time)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(tr.ID))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(tr.Price))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(tr.Volume))
	dst = append(dst, tr.Type)
	return dst
}

// AppendUnknown appends a header-plus-opaque-payload record of the given
// kind. Used to exercise the skip path for kinds the decoder does not
// interpret.
func AppendUnknown(dst []byte, kind model.Kind, time int64, payload []byte) []byte {
	dst = appendHeader(dst, kind, uint16(model.HeaderSize+len(payload)), time)
	dst = append(dst, payload...)
	return dst
}
