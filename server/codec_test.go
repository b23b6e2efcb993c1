package server

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/fixkme/tmrkit/errs"
)

func TestFrameSplit(t *testing.T) {
	var buf []byte
	buf = AppendFrame(buf, &Request{Seq: 1, Op: OpStart, Name: "room/42", DurationMs: 1500})
	buf = AppendFrame(buf, &Request{Seq: 2, Op: OpStopPrefix, Name: "room/"})

	// 数据不完整
	_, n, err := SplitFrame(buf[:3], 64)
	require.NoError(t, err)
	require.Zero(t, n)
	_, n, err = SplitFrame(buf[:6], 64)
	require.NoError(t, err)
	require.Zero(t, n)

	var got []Request
	for len(buf) > 0 {
		payload, n, err := SplitFrame(buf, 64)
		require.NoError(t, err)
		require.NotZero(t, n)
		var req Request
		require.NoError(t, req.Unmarshal(payload))
		got = append(got, req)
		buf = buf[n:]
	}
	require.Equal(t, []Request{
		{Seq: 1, Op: OpStart, Name: "room/42", DurationMs: 1500},
		{Seq: 2, Op: OpStopPrefix, Name: "room/"},
	}, got)

	big := AppendFrame(nil, &Request{Name: string(make([]byte, 100))})
	_, _, err = SplitFrame(big, 64)
	require.ErrorIs(t, err, errs.Protocol)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b := (&Reply{Seq: 9, Kind: KindExpired, Name: "hb"}).AppendTo(nil)
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = protowire.AppendTag(b, 16, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 7)

	var rsp Reply
	require.NoError(t, rsp.Unmarshal(b))
	require.Equal(t, Reply{Seq: 9, Kind: KindExpired, Name: "hb"}, rsp)

	// 负数错误码和时长
	b = (&Reply{Kind: KindReply, Code: -3, Count: 2}).AppendTo(nil)
	require.NoError(t, rsp.Unmarshal(b))
	require.Equal(t, int32(-3), rsp.Code)
	var req Request
	require.NoError(t, req.Unmarshal((&Request{Op: OpStart, DurationMs: -5}).AppendTo(nil)))
	require.Equal(t, int64(-5), req.DurationMs)
}

func TestDecodeTruncated(t *testing.T) {
	b := (&Request{Seq: 3, Op: OpStart, Name: "abcdef"}).AppendTo(nil)
	var req Request
	require.ErrorIs(t, req.Unmarshal(b[:len(b)-2]), errs.Protocol)
	require.ErrorIs(t, req.Unmarshal([]byte{0xff}), errs.Protocol)
	require.Equal(t, "stop_prefix", OpStopPrefix.String())
	require.Equal(t, "unknown", Op(42).String())
}
