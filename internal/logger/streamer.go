// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"container/ring"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Streamer is an io.Writer that keeps the most recent logged lines and allows
// to stream new ones.
type Streamer interface {
	io.Writer
	http.Handler

	// Lines returns the buffered lines, oldest first.
	Lines() []string

	// Stream returns a channel receiving every newly logged line. Call the
	// returned function to stop streaming.
	Stream() (<-chan string, func())
}

// NewStreamer returns a new Streamer backed by a ring buffer of the given size.
func NewStreamer(size int) Streamer {
	return &lineRingBuffer{
		size:    size,
		r:       ring.New(size),
		streams: make(map[chan string]struct{}),
	}
}

type lineRingBuffer struct {
	mu        sync.RWMutex
	size      int
	remainder string
	r         *ring.Ring
	streams   map[chan string]struct{}
}

func (lrb *lineRingBuffer) Write(b []byte) (int, error) {
	lrb.mu.Lock()
	defer lrb.mu.Unlock()

	text := lrb.remainder + string(b)
	for {
		line, rest, found := strings.Cut(text, "\n")
		if !found {
			break
		}
		line += "\n"
		lrb.r.Value = line
		for stream := range lrb.streams {
			select {
			case stream <- line:
			default:
				// Slow readers miss lines.
			}
		}
		lrb.r = lrb.r.Next()
		text = rest
	}
	lrb.remainder = text
	return len(b), nil
}

func (lrb *lineRingBuffer) Lines() []string {
	lrb.mu.RLock()
	defer lrb.mu.RUnlock()

	lines := make([]string, 0, lrb.size)
	lrb.r.Do(func(x any) {
		if x != nil {
			lines = append(lines, x.(string))
		}
	})
	return lines
}

func (lrb *lineRingBuffer) Stream() (<-chan string, func()) {
	lrb.mu.Lock()
	defer lrb.mu.Unlock()

	stream := make(chan string, lrb.size+1)
	lrb.streams[stream] = struct{}{}

	var once sync.Once
	return stream, func() {
		once.Do(func() {
			lrb.mu.Lock()
			defer lrb.mu.Unlock()
			delete(lrb.streams, stream)
			close(stream)
		})
	}
}

// ServeHTTP writes the buffered lines and then follows new ones until the
// client goes away. Clients sending "Accept: text/event-stream" get
// server-sent events.
func (lrb *lineRingBuffer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	evtStream := strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/event-stream")
	if evtStream {
		w.Header().Set("Content-Type", "text/event-stream")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}

	// Subscribe before reading the backlog so no line falls in between.
	stream, closeFunc := lrb.Stream()
	defer closeFunc()

	write := func(line string) {
		// See https://developer.mozilla.org/en-US/docs/Web/API/Server-sent_events/Using_server-sent_events.
		if evtStream {
			line = fmt.Sprintf("event: logline\ndata: %s\n", line)
		}
		io.WriteString(w, line)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}

	for _, line := range lrb.Lines() {
		write(line)
	}

	for {
		select {
		case line := <-stream:
			write(line)
		case <-r.Context().Done():
			return
		}
	}
}

var _ Streamer = (*lineRingBuffer)(nil)
