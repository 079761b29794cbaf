package joint

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for the actuator link.
	DefaultBaudRate = 230400

	// DefaultStaleAfter is how long a frame stays fresh. If nothing new
	// arrives within this window the joint is no longer streaming.
	DefaultStaleAfter = 500 * time.Millisecond
)

// Frame is one auxiliary-channel sample relayed by the actuator.
type Frame struct {
	Timestamp time.Time
	Genvars   [6]uint16 // 12-bit ADC readings (0-4095)
}

// Serial reads auxiliary-channel frames from an actuator over a serial
// link and caches the latest one. The engine reads the cache on every
// control tick; no bus I/O happens on that path.
type Serial struct {
	port       string
	baudRate   int
	staleAfter time.Duration

	conn      serial.Port
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected  bool
	latest     Frame
	receivedAt time.Time // host clock; device timestamps are not comparable
	haveFrame  bool
}

// NewSerial creates a relay client for the given port and baud rate.
func NewSerial(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:       port,
		baudRate:   baudRate,
		staleAfter: DefaultStaleAfter,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Connect opens the serial port and starts reading frames.
func (j *Serial) Connect() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: j.baudRate,
	}

	port, err := serial.Open(j.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", j.port, err)
	}

	j.conn = port
	j.connected = true

	go j.readFrames()

	return nil
}

// Close closes the connection and stops reading frames.
func (j *Serial) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.connected {
		return nil
	}

	j.cancel()

	if j.conn != nil {
		if err := j.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		j.conn = nil
	}

	j.connected = false

	return nil
}

// Streaming reports whether fresh frames are arriving on the link.
func (j *Serial) Streaming() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if !j.connected || !j.haveFrame {
		return false
	}
	return time.Since(j.receivedAt) <= j.staleAfter
}

// Genvars returns the six auxiliary channels from the latest cached frame.
func (j *Serial) Genvars() ([6]uint16, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.connected {
		return [6]uint16{}, fmt.Errorf("not connected")
	}
	if !j.haveFrame {
		return [6]uint16{}, fmt.Errorf("no frame received yet")
	}
	return j.latest.Genvars, nil
}

// readFrames reads lines from the serial port and caches parsed frames.
func (j *Serial) readFrames() {
	scanner := bufio.NewScanner(j.conn)
	for {
		select {
		case <-j.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			frame, err := parseFrame(line)
			if err != nil {
				log.Printf("Failed to parse frame '%s': %v", line, err)
				continue
			}

			j.mu.Lock()
			j.latest = frame
			j.receivedAt = time.Now()
			j.haveFrame = true
			j.mu.Unlock()
		}
	}
}

// parseFrame parses a line from the actuator into a Frame.
// Format: unix_micros,g0,g1,g2,g3,g4,g5
// Example: 1234567890123,2048,2051,2040,2048,2055,2047
func parseFrame(line string) (Frame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 7 {
		return Frame{}, fmt.Errorf("invalid frame format: expected 7 comma-separated values, got %d", len(parts))
	}

	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	var genvars [6]uint16
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseUint(parts[i+1], 10, 16)
		if err != nil {
			return Frame{}, fmt.Errorf("invalid genvar %d: %w", i, err)
		}
		if v > 4095 {
			return Frame{}, fmt.Errorf("genvar %d out of range: %d (max 4095)", i, v)
		}
		genvars[i] = uint16(v)
	}

	return Frame{
		Timestamp: time.Unix(0, timestampMicros*1000),
		Genvars:   genvars,
	}, nil
}
