package imu

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultUDPAddr is where phone streaming apps are told to send datagrams.
const DefaultUDPAddr = ":5555"

// UDPStreamer receives orientation datagrams from a phone IMU app.
//
// Each datagram fully replaces the previous sample; there is no queue. The
// receive loop runs in its own goroutine between Start and Stop.
type UDPStreamer struct {
	addr string

	mu     sync.Mutex
	conn   *net.UDPConn
	latest *Sample
	zero   offsets

	done chan struct{}
	wg   sync.WaitGroup
}

// NewUDPStreamer creates a streamer listening on addr, e.g. ":5555".
func NewUDPStreamer(addr string) *UDPStreamer {
	if addr == "" {
		addr = DefaultUDPAddr
	}
	return &UDPStreamer{addr: addr}
}

// Addr returns the local address the streamer is bound to, once started.
func (u *UDPStreamer) Addr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

// Start binds the socket and begins receiving in the background.
func (u *UDPStreamer) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn != nil {
		return fmt.Errorf("imu: udp streamer already started")
	}

	laddr, err := net.ResolveUDPAddr("udp", u.addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", u.addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", u.addr, err)
	}

	u.conn = conn
	u.done = make(chan struct{})
	u.wg.Add(1)
	go u.receiveLoop(conn, u.done)
	return nil
}

// Stop closes the socket and waits for the receive loop to exit.
func (u *UDPStreamer) Stop() error {
	u.mu.Lock()
	conn := u.conn
	done := u.done
	u.conn = nil
	u.done = nil
	u.mu.Unlock()
	if conn == nil {
		return nil
	}
	close(done)
	err := conn.Close()
	u.wg.Wait()
	return err
}

func (u *UDPStreamer) receiveLoop(conn *net.UDPConn, done chan struct{}) {
	defer u.wg.Done()
	buf := make([]byte, 4096)
	for {
		select {
		case <-done:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return // socket closed
		}

		a, ok := parsePacket(buf[:n])
		if !ok {
			continue
		}
		u.store(a)
	}
}

func (u *UDPStreamer) store(a angles) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.zero.apply(a.roll, a.pitch, a.yaw)
	u.latest = &s
}

// Latest returns the most recent sample, or false if none has arrived.
func (u *UDPStreamer) Latest() (Sample, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.latest == nil {
		return Sample{}, false
	}
	return *u.latest, true
}

// Calibrate makes the current orientation the new zero reference. It reports
// false when no sample has arrived yet.
func (u *UDPStreamer) Calibrate() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.latest == nil {
		return false
	}
	u.zero.rezero(*u.latest)
	return true
}
