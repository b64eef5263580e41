// Package media adapts camera and microphone devices into wizard files: a
// JPEG snapshot of a live preview or a WEBM recording capped at a fixed
// duration.
package media

import (
	"context"
	"errors"
	"image"
	"sync"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDeviceBusy       = errors.New("device is already in use")
	ErrNoStream         = errors.New("no active stream")
	ErrNoFrame          = errors.New("no frame received yet")
	ErrStreamClosed     = errors.New("stream closed")
	ErrNoAudio          = errors.New("stream has no microphone track")
)

// Stream is a live hardware stream. Frame returns the most recent video
// frame; Chunks yields encoded recording chunks and may be nil for
// video-only streams. Close releases the hardware.
type Stream interface {
	Frame() (image.Image, error)
	Chunks() <-chan []byte
	Close() error
}

// Device grants access to capture hardware.
type Device interface {
	RequestCamera(ctx context.Context) (Stream, error)
	RequestCameraAndMicrophone(ctx context.Context) (Stream, error)
}

// DeniedDevice refuses every request, as a device whose permission prompt
// was declined.
type DeniedDevice struct{}

func (DeniedDevice) RequestCamera(context.Context) (Stream, error) {
	return nil, ErrPermissionDenied
}

func (DeniedDevice) RequestCameraAndMicrophone(context.Context) (Stream, error) {
	return nil, ErrPermissionDenied
}

// PushDevice is a device fed from outside: frames and recording chunks are
// pushed by the caller (the HTTP layer) and read by the capturer. At most
// one stream is open at a time.
type PushDevice struct {
	mu     sync.Mutex
	active *pushStream
}

func NewPushDevice() *PushDevice { return &PushDevice{} }

func (d *PushDevice) RequestCamera(ctx context.Context) (Stream, error) {
	return d.open(ctx, false)
}

func (d *PushDevice) RequestCameraAndMicrophone(ctx context.Context) (Stream, error) {
	return d.open(ctx, true)
}

func (d *PushDevice) open(ctx context.Context, audio bool) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return nil, ErrDeviceBusy
	}

	s := &pushStream{device: d, done: make(chan struct{})}
	if audio {
		s.chunks = make(chan []byte, 64)
	}
	d.active = s
	return s, nil
}

// Active reports whether a stream is currently open.
func (d *PushDevice) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

func (d *PushDevice) current() (*pushStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil, ErrNoStream
	}
	return d.active, nil
}

// PushFrame replaces the latest video frame of the open stream.
func (d *PushDevice) PushFrame(img image.Image) error {
	s, err := d.current()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.frame = img
	s.mu.Unlock()
	return nil
}

// PushChunk hands a recording chunk to the open stream, waiting while the
// reader catches up.
func (d *PushDevice) PushChunk(ctx context.Context, chunk []byte) error {
	s, err := d.current()
	if err != nil {
		return err
	}
	if s.chunks == nil {
		return ErrNoAudio
	}
	select {
	case s.chunks <- chunk:
		return nil
	case <-s.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *PushDevice) release(s *pushStream) {
	d.mu.Lock()
	if d.active == s {
		d.active = nil
	}
	d.mu.Unlock()
}

type pushStream struct {
	device *PushDevice
	mu     sync.Mutex
	frame  image.Image
	chunks chan []byte
	done   chan struct{}
	once   sync.Once
}

func (s *pushStream) Frame() (image.Image, error) {
	select {
	case <-s.done:
		return nil, ErrStreamClosed
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, ErrNoFrame
	}
	return s.frame, nil
}

func (s *pushStream) Chunks() <-chan []byte { return s.chunks }

func (s *pushStream) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.device.release(s)
	})
	return nil
}
