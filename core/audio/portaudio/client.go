// Package portaudio provides blocking-stream microphone capture and playback
// through PortAudio.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-heartcheck/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-heartcheck/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)

type Client struct {
	bufferSize int
	sampleRate int

	mu            sync.Mutex
	stream        *portaudio.Stream
	leftoverAudio []byte
	cancelCapture context.CancelFunc
	captureDone   chan struct{}

	in  []int16
	out []int16
}

func NewClient(bufferSize, sampleRate int) (*Client, error) {
	if bufferSize <= 0 {
		return nil, errors.New("buffer size must be positive")
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		sampleRate: sampleRate,
		in:         make([]int16, bufferSize),
		out:        make([]int16, bufferSize),
	}, nil
}

func (c *Client) open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(1, 1, float64(c.sampleRate), c.bufferSize, c.in, c.out)
	if err != nil {
		return fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	c.stream = stream
	return nil
}

// RequestMicrophonePermission opens the default duplex stream. Failure to
// open it is reported as a denial.
func (c *Client) RequestMicrophonePermission(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := c.open(); err != nil {
		logger.Warn("microphone unavailable", "error", err)
		return false
	}
	return true
}

// StartCapture reads the input stream on a separate goroutine until
// StopCapture is called or ctx is done.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.open(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.cancelCapture != nil {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancelCapture, c.captureDone = cancel, done
	stream := c.stream
	c.mu.Unlock()

	go func() {
		defer close(done)
		for ctx.Err() == nil {
			if err := stream.Read(); err != nil {
				logger.Warn("failed to read from portaudio stream", "error", err)
				continue
			}

			audioBuffer := bytes.Buffer{}
			_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			if ctx.Err() != nil {
				return
			}
			onAudio(audioBuffer.Bytes())
		}
	}()
	return nil
}

// StopCapture returns once the read loop has exited, so no audio callback
// runs after it.
func (c *Client) StopCapture() error {
	c.mu.Lock()
	cancel, done := c.cancelCapture, c.captureDone
	c.cancelCapture, c.captureDone = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (c *Client) SendAudio(audio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return errors.New("portaudio stream not open")
	}

	bufferSize := c.bufferSize * 2
	audio = append(c.leftoverAudio, audio...)
	for len(audio) >= bufferSize {
		if err := binary.Read(bytes.NewReader(audio[:bufferSize]), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to decode audio: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		audio = audio[bufferSize:]
	}
	c.leftoverAudio = append([]byte(nil), audio...)
	return nil
}

func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leftoverAudio = nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: c.sampleRate, Format: audio.EncodingLinear16}
}

func (c *Client) Close() error {
	_ = c.StopCapture()

	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.stream != nil {
		errs = append(errs, c.stream.Close())
		c.stream = nil
	}
	errs = append(errs, portaudio.Terminate())
	return errors.Join(errs...)
}
