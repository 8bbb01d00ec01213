package link

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/featherforge/arcos.go/pkg/wire"
)

func rawBytes(t *testing.T, pkt *wire.Packet) []byte {
	t.Helper()
	b, err := pkt.Bytes()
	require.NoError(t, err)
	return b
}

func feedAll(s *Scanner, data []byte) (pkts []*wire.Packet, errs []error, skipped int) {
	for _, b := range data {
		res := s.Feed(b)
		if res.Packet != nil {
			pkts = append(pkts, res.Packet)
		}
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		skipped += res.Skipped
	}
	return
}

func TestScannerWalk(t *testing.T) {
	raw := rawBytes(t, wire.NewShort(wire.CmdRunTest, []byte{0x01}))
	require.Equal(t, []byte{0xAA, 0x55, 0x10, 0x01, 0x01, 0x10}, raw)

	s := NewScanner(wire.FormatShort)
	states := []ScanState{
		StateSeeking,
		StateReadingHeader,
		StateReadingHeader,
		StateReadingPayload,
		StateReadingFooter,
		StateSeeking,
	}
	for i, b := range raw {
		res := s.Feed(b)
		require.Equal(t, states[i], res.State, "byte %d", i)
		require.NoError(t, res.Err)
		require.Zero(t, res.Skipped)
		if i < len(raw)-1 {
			require.Nil(t, res.Packet)
		} else {
			require.NotNil(t, res.Packet)
			require.Equal(t, byte(wire.CmdRunTest), res.Packet.Type)
			require.Equal(t, []byte{0x01}, res.Packet.Payload)
		}
	}
}

func TestScannerEmptyPayload(t *testing.T) {
	raw := rawBytes(t, wire.NewExtended(wire.MsgStatsRequest, nil))
	s := NewScanner(wire.FormatExtended)
	var sawPayload bool
	var got *wire.Packet
	for _, b := range raw {
		res := s.Feed(b)
		if res.State == StateReadingPayload {
			sawPayload = true
		}
		if res.Packet != nil {
			got = res.Packet
		}
	}
	require.False(t, sawPayload)
	require.NotNil(t, got)
	require.Empty(t, got.Payload)
}

func TestScannerResync(t *testing.T) {
	pl := wire.PingPayload{TimestampUS: 7, Seq: 1}
	pkt := wire.NewExtended(wire.MsgPing, pl.Marshal())
	pkt.FrameNum = pl.Seq
	raw := rawBytes(t, pkt)

	tests := []struct {
		name  string
		noise []byte
	}{
		{"none", nil},
		{"garbage", []byte{0x00, 0xFF, 0x13, 0x37}},
		{"false-start", []byte{0xAA}},
		{"false-start-two", []byte{0xAA, 0x55}},
		{"nested-marker", []byte{0x00, 0xAA, 0x55}},
		{"stray-marker", []byte{0xAA, 0x55, 0xCC}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewScanner(wire.FormatExtended)
			stream := append([]byte{}, test.noise...)
			stream = append(stream, raw...)
			stream = append(stream, raw...)
			pkts, _, _ := feedAll(s, stream)
			require.NotEmpty(t, pkts)
			last := pkts[len(pkts)-1]
			require.Equal(t, byte(wire.MsgPing), last.Type)
			require.Equal(t, pkt.FrameNum, last.FrameNum)
			require.Equal(t, pkt.Payload, last.Payload)
		})
	}
}

func TestScannerSkipAccounting(t *testing.T) {
	tests := []struct {
		name   string
		format wire.Format
		noise  []byte
	}{
		{"clean", wire.FormatShort, nil},
		{"garbage", wire.FormatShort, []byte{0x00, 0x13, 0x37}},
		{"half-marker", wire.FormatShort, []byte{0xAA}},
		{"repeat-first", wire.FormatShort, []byte{0xAA, 0xAA}},
		{"ext-false-start", wire.FormatExtended, []byte{0xAA, 0x55, 0x00}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var raw []byte
			if test.format == wire.FormatShort {
				raw = rawBytes(t, wire.NewShort(wire.CmdGetState, nil))
			} else {
				raw = rawBytes(t, wire.NewExtended(wire.MsgFrameRequest, nil))
			}
			s := NewScanner(test.format)
			pkts, errs, skipped := feedAll(s, append(test.noise, raw...))
			require.Empty(t, errs)
			require.Len(t, pkts, 1)
			require.Equal(t, len(test.noise), skipped)
		})
	}
}

func TestScannerCorruptRecovery(t *testing.T) {
	bad := rawBytes(t, wire.NewShort(wire.CmdGetMetrics, []byte{0x01, 0x02}))
	bad[4] ^= 0x40
	good := rawBytes(t, wire.NewShort(wire.CmdGetState, nil))

	s := NewScanner(wire.FormatShort)
	pkts, errs, skipped := feedAll(s, append(bad, good...))
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], wire.ErrChecksumMismatch)
	require.Equal(t, len(bad), skipped)
	require.Len(t, pkts, 1)
	require.Equal(t, byte(wire.CmdGetState), pkts[0].Type)
}

func TestScannerOversizeHeader(t *testing.T) {
	// header declaring more payload than any packet may carry
	junk := []byte{0xAA, 0x55, 0xCC, wire.MsgHub75Frame, 0x00, 0x08, 0x00, 0x00, 0x00, 0x01}
	good := rawBytes(t, wire.NewExtended(wire.MsgPong, []byte{0x01}))

	s := NewScanner(wire.FormatExtended)
	pkts, errs, skipped := feedAll(s, append(junk, good...))
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], wire.ErrPayloadTooLarge)
	require.Equal(t, len(junk), skipped)
	require.Len(t, pkts, 1)
	require.Equal(t, byte(wire.MsgPong), pkts[0].Type)
}

func TestScannerTimeout(t *testing.T) {
	raw := rawBytes(t, wire.NewExtended(wire.MsgStatus, make([]byte, wire.StatusPayloadLen)))
	tests := []struct {
		name    string
		feed    int
		err     error
		skipped int
	}{
		{"idle", 0, nil, 0},
		{"mid-marker", 2, nil, 2},
		{"mid-header", 5, ErrHeaderTimeout, 5},
		{"mid-payload", 12, ErrPayloadTimeout, 12},
		{"mid-footer", len(raw) - 1, ErrFooterTimeout, len(raw) - 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewScanner(wire.FormatExtended)
			for _, b := range raw[:test.feed] {
				s.Feed(b)
			}
			res := s.Timeout()
			if test.err != nil {
				require.ErrorIs(t, res.Err, test.err)
			} else {
				require.NoError(t, res.Err)
			}
			require.Equal(t, test.skipped, res.Skipped)
			require.Equal(t, StateSeeking, s.State())

			pkts, errs, _ := feedAll(s, raw)
			require.Empty(t, errs)
			require.Len(t, pkts, 1)
		})
	}
}

func TestScanStateString(t *testing.T) {
	require.Equal(t, "seeking", StateSeeking.String())
	require.Equal(t, "reading-header", StateReadingHeader.String())
	require.Equal(t, "reading-payload", StateReadingPayload.String())
	require.Equal(t, "reading-footer", StateReadingFooter.String())
}
