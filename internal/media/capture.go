package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

const (
	DefaultRecordingCeiling = 30 * time.Second
	DefaultJPEGQuality      = 80

	PhotoContentType = "image/jpeg"
	VideoContentType = "video/webm"
)

var (
	ErrCaptureActive  = errors.New("a capture is already active")
	ErrNoPreview      = errors.New("camera preview is not running")
	ErrNotRecording   = errors.New("no recording in progress")
	ErrEmptyRecording = errors.New("recording produced no data")
)

// Options tune a Capturer. Zero values select the defaults.
type Options struct {
	RecordingCeiling time.Duration
	JPEGQuality      int
	Now              func() time.Time
	Logger           logging.Logger
}

// Capturer drives one Device on behalf of a single wizard. Every file it
// produces is handed to the sink, including recordings stopped by the
// ceiling. Only one capture, preview or recording, may hold the device at a
// time.
type Capturer struct {
	device Device
	sink   func(wizard.File)
	opts   Options
	logger logging.Logger

	mu      sync.Mutex
	preview *Handle
	rec     *recording
	// last is a recording the ceiling stopped, kept for StopRecording.
	last *recording
}

type recording struct {
	handle   *Handle
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	auto     bool
	file     wizard.File
	err      error
	taken    bool
}

// NewCapturer builds a Capturer over device. sink is called outside the
// capturer's lock, possibly from the recording goroutine.
func NewCapturer(device Device, sink func(wizard.File), opts Options) *Capturer {
	if opts.RecordingCeiling <= 0 {
		opts.RecordingCeiling = DefaultRecordingCeiling
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Capturer{
		device: device,
		sink:   sink,
		opts:   opts,
		logger: opts.Logger.With("module", "media"),
	}
}

func (c *Capturer) busy() bool { return c.preview != nil || c.rec != nil }

// Previewing reports whether the camera preview is running.
func (c *Capturer) Previewing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview != nil
}

// Recording reports whether a recording is in progress.
func (c *Capturer) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec != nil
}

// StartPreview opens the camera for snapshots.
func (c *Capturer) StartPreview(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return ErrCaptureActive
	}

	h, err := Acquire(ctx, c.device.RequestCamera)
	if err != nil {
		c.logger.Warn(ctx, "camera request failed", "err", err)
		return fmt.Errorf("request camera: %w", err)
	}
	c.preview = h
	return nil
}

// StopPreview releases the camera. Stopping a preview that is not running is
// a no-op.
func (c *Capturer) StopPreview() error {
	c.mu.Lock()
	h := c.preview
	c.preview = nil
	c.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Release()
}

// CapturePhoto encodes the current preview frame as a JPEG file. The preview
// keeps running.
func (c *Capturer) CapturePhoto(ctx context.Context) (wizard.File, error) {
	c.mu.Lock()
	h := c.preview
	c.mu.Unlock()
	if h == nil {
		return wizard.File{}, ErrNoPreview
	}

	frame, err := h.Stream().Frame()
	if err != nil {
		return wizard.File{}, fmt.Errorf("read frame: %w", err)
	}

	b := frame.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: c.opts.JPEGQuality}); err != nil {
		return wizard.File{}, fmt.Errorf("encode jpeg: %w", err)
	}

	f := wizard.File{
		Name:        fmt.Sprintf("photo-%d.jpg", c.opts.Now().UnixMilli()),
		ContentType: PhotoContentType,
		Data:        buf.Bytes(),
	}
	c.logger.Debug(ctx, "photo captured", "name", f.Name, "bytes", len(f.Data))
	c.sink(f)
	return f, nil
}

// StartRecording opens camera and microphone and begins collecting chunks.
// The recording stops on StopRecording or when the ceiling elapses; in the
// latter case the file goes straight to the sink.
func (c *Capturer) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return ErrCaptureActive
	}

	h, err := Acquire(ctx, c.device.RequestCameraAndMicrophone)
	if err != nil {
		c.logger.Warn(ctx, "camera and microphone request failed", "err", err)
		return fmt.Errorf("request camera and microphone: %w", err)
	}

	r := &recording{handle: h, stop: make(chan struct{}), done: make(chan struct{})}
	c.rec, c.last = r, nil
	go c.record(context.WithoutCancel(ctx), r)
	return nil
}

func (c *Capturer) record(ctx context.Context, r *recording) {
	defer close(r.done)

	timer := time.NewTimer(c.opts.RecordingCeiling)
	defer timer.Stop()

	var chunks [][]byte
	src := r.handle.Stream().Chunks()
loop:
	for {
		select {
		case chunk, ok := <-src:
			if !ok {
				break loop
			}
			if len(chunk) > 0 {
				chunks = append(chunks, chunk)
			}
		case <-r.stop:
			break loop
		case <-timer.C:
			r.auto = true
			break loop
		}
	}

	if err := r.handle.Release(); err != nil {
		c.logger.Warn(ctx, "release stream", "err", err)
	}

	if len(chunks) == 0 {
		r.err = ErrEmptyRecording
	} else {
		r.file = wizard.File{
			Name:        fmt.Sprintf("video-%d.webm", c.opts.Now().UnixMilli()),
			ContentType: VideoContentType,
			Data:        bytes.Join(chunks, nil),
		}
	}

	if r.auto {
		c.logger.Info(ctx, "recording stopped at ceiling", "ceiling", c.opts.RecordingCeiling)
		c.finish(r)
	}
}

// finish detaches r from the capturer and delivers its file once. It reports
// whether this call did the delivery.
func (c *Capturer) finish(r *recording) bool {
	c.mu.Lock()
	if c.rec == r {
		c.rec = nil
		if r.auto {
			c.last = r
		}
	}
	first := !r.taken
	r.taken = true
	c.mu.Unlock()

	if first && r.err == nil {
		c.sink(r.file)
	}
	return first
}

// StopRecording ends the recording and returns the produced file. If the
// ceiling already stopped it, the first call after that returns the same
// file without delivering it a second time.
func (c *Capturer) StopRecording(ctx context.Context) (wizard.File, error) {
	c.mu.Lock()
	r := c.rec
	if r == nil {
		last := c.last
		c.last = nil
		c.mu.Unlock()
		if last == nil {
			return wizard.File{}, ErrNotRecording
		}
		if last.err != nil {
			return wizard.File{}, last.err
		}
		return last.file, nil
	}
	c.mu.Unlock()

	r.stopOnce.Do(func() { close(r.stop) })
	select {
	case <-r.done:
	case <-ctx.Done():
		return wizard.File{}, ctx.Err()
	}

	c.finish(r)
	if r.err != nil {
		return wizard.File{}, r.err
	}
	return r.file, nil
}

// Close releases any held hardware. An in-progress recording is discarded.
func (c *Capturer) Close() error {
	c.mu.Lock()
	h, r := c.preview, c.rec
	c.preview, c.rec, c.last = nil, nil, nil
	if r != nil {
		r.taken = true
	}
	c.mu.Unlock()

	var errs []error
	if h != nil {
		errs = append(errs, h.Release())
	}
	if r != nil {
		r.stopOnce.Do(func() { close(r.stop) })
		<-r.done
	}
	return errors.Join(errs...)
}
