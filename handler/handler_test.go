package handler

import (
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/metrics"
)

func dispatchCount(t *testing.T, m *metrics.Metrics, oid uint32) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.HandlerDispatches.WithLabelValues(strconv.FormatUint(uint64(oid), 10)).Write(&pb))
	return pb.GetCounter().GetValue()
}

func TestRegistryDispatchByOID(t *testing.T) {
	r := NewDefaultRegistry()

	h, ok := r.ByOID(oidInt4)
	require.True(t, ok)
	assert.Equal(t, "int4", h.PGName())

	sw, cw, err := MustDispatchWriter("test", h)
	require.NoError(t, err)
	assert.NotNil(t, sw)
	assert.Nil(t, cw)
}

func TestRegistryReportsDispatchToMetrics(t *testing.T) {
	r := NewDefaultRegistry()
	m := metrics.New(prometheus.NewRegistry())
	r.SetMetrics(m)

	_, ok := r.ByOID(oidInt4)
	require.True(t, ok)
	_, ok = r.ByHostType(typeInt32, "", "")
	require.True(t, ok)

	assert.Equal(t, 2.0, dispatchCount(t, m, oidInt4))
}

func TestRegistryWithoutMetricsDoesNotPanic(t *testing.T) {
	r := NewDefaultRegistry()
	h, ok := r.ByOID(oidInt4)
	require.True(t, ok)
	assert.Equal(t, "int4", h.PGName())
}

func TestByteaNewWriterReturnsIndependentCursor(t *testing.T) {
	shared := &byteaHandler{}
	w1 := shared.NewWriter()
	w2 := shared.NewWriter()

	require.NoError(t, w1.PrepareWrite([]byte{1, 2, 3}))
	require.NoError(t, w2.PrepareWrite([]byte{9, 9, 9, 9, 9}))

	buf := buffer.New(64)
	done1, _, err := w1.Write(buf)
	require.NoError(t, err)
	assert.True(t, done1)
	assert.Equal(t, []byte{1, 2, 3}, buf.GetBytes(3))

	done2, _, err := w2.Write(buf)
	require.NoError(t, err)
	assert.True(t, done2)
	assert.Equal(t, []byte{9, 9, 9, 9, 9}, buf.GetBytes(5))
}

func TestRegistryFallsBackToUnrecognized(t *testing.T) {
	r := NewDefaultRegistry()

	h, ok := r.ByOID(999999)
	require.True(t, ok)
	assert.Equal(t, "unrecognized", h.PGName())
	assert.False(t, h.SupportsBinaryWrite())
}

func TestInt4RoundTrip(t *testing.T) {
	h := newInt4Handler().(*fixedHandler)
	buf := buffer.New(16)

	n, err := h.ValidateAndGetLength(int32(42))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	require.NoError(t, h.WriteSimple(buf, int32(42)))
	v, err := h.ReadSimple(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)
}

func TestByteaChunkingWriteDrainsAcrossSmallBuffer(t *testing.T) {
	h := &byteaHandler{}
	value := make([]byte, 20)
	for i := range value {
		value[i] = byte(i)
	}
	require.NoError(t, h.PrepareWrite(value))

	buf := buffer.New(8)
	var collected []byte
	for {
		done, direct, err := h.Write(buf)
		require.NoError(t, err)
		require.Nil(t, direct)
		collected = append(collected, buf.GetBytes(buf.ReadBytesLeft())...)
		buf.Reset()
		if done {
			break
		}
	}
	assert.Equal(t, value, collected)
}

func TestByteaWriteUsesDirectBufferBypassForLargeValues(t *testing.T) {
	h := &byteaHandler{}
	value := make([]byte, directBufferThreshold+10)
	require.NoError(t, h.PrepareWrite(value))

	buf := buffer.New(64)
	done, direct, err := h.Write(buf)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Len(t, direct, len(value))
}

func TestUnrecognizedHandlerRefusesBinary(t *testing.T) {
	h := unrecognizedHandler{}
	buf := buffer.New(16)
	err := h.WriteSimple(buf, "anything")
	require.Error(t, err)
}
