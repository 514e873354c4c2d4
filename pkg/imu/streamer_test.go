package imu

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPStreamer_ReceiveAndCalibrate(t *testing.T) {
	u := NewUDPStreamer("127.0.0.1:0")
	require.NoError(t, u.Start())
	defer u.Stop()

	_, ok := u.Latest()
	assert.False(t, ok, "no sample before first packet")
	assert.False(t, u.Calibrate(), "calibrate without a sample")

	conn, err := net.Dial("udp", u.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	send := func(roll, pitch, yaw float64) {
		_, err := fmt.Fprintf(conn, `{"roll": %g, "pitch": %g, "yaw": %g}`, roll, pitch, yaw)
		require.NoError(t, err)
	}

	send(5, -3, 10)
	s := waitForSample(t, u, func(s Sample) bool { return s.Roll == 5 })
	assert.Equal(t, -3.0, s.Pitch)
	assert.Equal(t, 10.0, s.Yaw)

	// Calibration zeroes the current orientation for subsequent samples.
	require.True(t, u.Calibrate())
	send(6, -3, 10)
	s = waitForSample(t, u, func(s Sample) bool { return s.Roll == 1 })
	assert.Equal(t, 0.0, s.Pitch)
	assert.Equal(t, 0.0, s.Yaw)

	require.NoError(t, u.Stop())
}

func TestUDPStreamer_StopAndRestart(t *testing.T) {
	u := NewUDPStreamer("127.0.0.1:0")
	require.NoError(t, u.Start())
	require.NoError(t, u.Stop())
	assert.Nil(t, u.Addr())
	require.NoError(t, u.Stop(), "second stop is a no-op")

	// A stopped streamer restarts on a fresh socket and keeps receiving.
	require.NoError(t, u.Start())
	conn, err := net.Dial("udp", u.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprint(conn, `{"roll": 1, "pitch": 0, "yaw": 0}`)
	require.NoError(t, err)
	waitForSample(t, u, func(s Sample) bool { return s.Roll == 1 })

	require.NoError(t, u.Stop())
}

func TestHTTPStreamer_ReceiveAndStatus(t *testing.T) {
	h := NewHTTPStreamer("127.0.0.1:0")
	require.NoError(t, h.Start())
	defer h.Stop()

	base := "http://" + h.Addr().String()

	resp, err := http.Post(base+"/imu", "application/json",
		strings.NewReader(`{"roll": 2.5, "pitch": -1, "yaw": 0}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.5, s.Roll)
	assert.Equal(t, -1.0, s.Pitch)

	// Unparseable payloads are rejected without disturbing the last sample.
	resp, err = http.Post(base+"/", "application/json", strings.NewReader(`{"foo": 1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s, ok = h.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.5, s.Roll)

	resp, err = http.Get(base + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func waitForSample(t *testing.T, src Source, match func(Sample) bool) Sample {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s, ok := src.Latest(); ok && match(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for sample")
	return Sample{}
}
