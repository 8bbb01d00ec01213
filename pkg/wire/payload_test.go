package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPingPayload(t *testing.T) {
	p := PingPayload{TimestampUS: 0x12345678, Seq: 0xABCD}
	b := p.Marshal()
	require.Equal(t, []byte{0x78, 0x56, 0x34, 0x12, 0xCD, 0xAB}, b)

	var q PingPayload
	require.NoError(t, q.Unmarshal(b))
	require.Equal(t, p, q)

	require.Equal(t, ErrPayloadSize, q.Unmarshal(b[:5]))
}

func TestStatusPayload(t *testing.T) {
	p := StatusPayload{
		UptimeMS:      120000,
		FramesRx:      420,
		FramesDropped: 3,
		Hub75OK:       1,
		OledOK:        1,
	}
	b := p.Marshal()
	require.Len(t, b, StatusPayloadLen)

	var q StatusPayload
	require.NoError(t, q.Unmarshal(b))
	require.Equal(t, p, q)

	require.Equal(t, ErrPayloadSize, q.Unmarshal(append(b, 0)))
}

func TestStatsPayload(t *testing.T) {
	p := StatsPayload{
		TxBytes:        1 << 20,
		RxBytes:        4096,
		TxFrames:       100,
		RxFrames:       99,
		TxFragments:    1200,
		RxFragments:    1188,
		ChecksumErrors: 2,
		SyncErrors:     17,
		TimeoutErrors:  1,
		Retries:        12,
		RetrySuccess:   11,
		LastRTTUS:      950,
	}
	b := p.Marshal()
	require.Len(t, b, StatsPayloadLen)

	var q StatsPayload
	require.NoError(t, q.Unmarshal(b))
	require.Equal(t, p, q)

	require.Equal(t, ErrPayloadSize, q.Unmarshal(nil))
}
