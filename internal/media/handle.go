package media

import (
	"context"
	"sync"
)

// Handle owns an acquired stream. Release closes the stream exactly once no
// matter how many times it is called.
type Handle struct {
	stream Stream
	once   sync.Once
	err    error
}

// Acquire opens a stream with request and wraps it in a Handle. On error no
// handle is returned and nothing needs releasing.
func Acquire(ctx context.Context, request func(context.Context) (Stream, error)) (*Handle, error) {
	s, err := request(ctx)
	if err != nil {
		return nil, err
	}
	return &Handle{stream: s}, nil
}

func (h *Handle) Stream() Stream { return h.stream }

func (h *Handle) Release() error {
	h.once.Do(func() { h.err = h.stream.Close() })
	return h.err
}
