package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/jengzang/trackheat/internal/logging"
)

// uereMeters converts HDOP into an approximate horizontal error.
const uereMeters = 5.0

// SerialConfig configures SerialSource.
type SerialConfig struct {
	Port      string
	BaudRate  int
	MaxFixAge time.Duration
}

// SerialSource reads NMEA 0183 sentences from a GPS receiver on a serial port.
type SerialSource struct {
	port      io.ReadCloser
	maxFixAge time.Duration
	buf       *fixBuffer
	log       zerolog.Logger

	mu       sync.Mutex
	lastHDOP float64
	readErr  error
	done     chan struct{}
}

// NewSerialSource opens the port (8N1) and starts decoding sentences.
func NewSerialSource(cfg SerialConfig) (*SerialSource, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial: port is required")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return newSerialSource(port, cfg.MaxFixAge), nil
}

func newSerialSource(port io.ReadCloser, maxFixAge time.Duration) *SerialSource {
	s := &SerialSource{
		port:      port,
		maxFixAge: maxFixAge,
		buf:       newFixBuffer(),
		log:       logging.Component("serial"),
		done:      make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *SerialSource) readLoop() {
	defer close(s.done)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		sentence, err := decodeNMEA(scanner.Text())
		if err != nil {
			if !errors.Is(err, errUnsupportedSentence) {
				s.log.Debug().Err(err).Msg("skipping sentence")
			}
			continue
		}
		if !sentence.Valid {
			continue
		}

		s.mu.Lock()
		if sentence.HDOP > 0 {
			s.lastHDOP = sentence.HDOP
		}
		hdop := s.lastHDOP
		s.mu.Unlock()

		fix := sentence.Fix
		fix.AccuracyMeters = hdop * uereMeters
		s.buf.offer(fix)
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
	s.log.Warn().Err(err).Msg("receiver stream ended")
}

// RequestFix waits for a fix whose HDOP satisfies the accuracy hint. Fixes with
// unknown HDOP are accepted.
func (s *SerialSource) RequestFix(ctx context.Context, accuracy Accuracy) (*Fix, error) {
	if err := s.CheckAvailability(ctx); err != nil {
		return nil, err
	}
	limit := accuracy.MaxHDOP() * uereMeters
	return s.buf.next(ctx, s.maxFixAge, func(f Fix) bool {
		return f.AccuracyMeters <= limit
	})
}

// CheckAvailability reports ErrUnavailable once the receiver stream has ended.
func (s *SerialSource) CheckAvailability(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return fmt.Errorf("gps receiver: %w: %v", ErrUnavailable, s.readErr)
	}
	return nil
}

// Close closes the port and waits for the reader to exit.
func (s *SerialSource) Close() error {
	err := s.port.Close()
	<-s.done
	return err
}
