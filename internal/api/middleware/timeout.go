package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"ndx-snapshot-backend/internal/api/dto"
)

// Timeout bounds the rest of the chain by duration. The chain writes into a
// buffer that is copied out once it returns; if the deadline passes first a
// single 504 goes out and later writes are dropped. The middleware returns
// only after the chain has, so the gin.Context is never used past it.
func Timeout(duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), duration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		w := c.Writer
		tw := newTimeoutWriter(w)
		c.Writer = tw

		done := make(chan struct{})
		var panicked any
		go func() {
			defer func() {
				panicked = recover()
				close(done)
			}()
			c.Next()
		}()

		select {
		case <-done:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				tw.expire()
				writeTimedOut(w)
			}
			<-done
		}

		c.Writer = w
		if panicked != nil {
			panic(panicked)
		}
		if tw.expired() {
			c.Abort()
			return
		}
		tw.copyTo(w)
	}
}

func writeTimedOut(w gin.ResponseWriter) {
	w.WriteHeader(http.StatusGatewayTimeout)
	_ = render.JSON{Data: dto.Res{Success: false, Error: "request timed out"}}.Render(w)
	w.Flush()
}

// timeoutWriter holds a response until the chain is done with it.
type timeoutWriter struct {
	gin.ResponseWriter

	mu        sync.Mutex
	header    http.Header
	body      bytes.Buffer
	code      int
	statusSet bool
	written   bool
	timedOut  bool
}

func newTimeoutWriter(w gin.ResponseWriter) *timeoutWriter {
	return &timeoutWriter{
		ResponseWriter: w,
		header:         w.Header().Clone(),
		code:           http.StatusOK,
	}
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if code <= 0 || tw.written || tw.timedOut {
		return
	}
	tw.code = code
	tw.statusSet = true
}

func (tw *timeoutWriter) WriteHeaderNow() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if !tw.timedOut {
		tw.written = true
	}
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.written = true
	return tw.body.Write(b)
}

func (tw *timeoutWriter) WriteString(s string) (int, error) {
	return tw.Write([]byte(s))
}

func (tw *timeoutWriter) Status() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.code
}

func (tw *timeoutWriter) Size() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if !tw.written {
		return -1
	}
	return tw.body.Len()
}

func (tw *timeoutWriter) Written() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.written
}

// Flush is a no-op; the body is released in one piece by copyTo.
func (tw *timeoutWriter) Flush() {}

func (tw *timeoutWriter) expire() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.timedOut = true
}

func (tw *timeoutWriter) expired() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.timedOut
}

// copyTo releases the buffered response. Headers are always carried over so
// a later error response keeps them; status and body only if the chain set them.
func (tw *timeoutWriter) copyTo(w gin.ResponseWriter) {
	dst := w.Header()
	for k := range dst {
		delete(dst, k)
	}
	for k, v := range tw.header {
		dst[k] = v
	}
	if !tw.written && !tw.statusSet {
		return
	}
	w.WriteHeader(tw.code)
	w.WriteHeaderNow()
	if tw.body.Len() > 0 {
		_, _ = w.Write(tw.body.Bytes())
	}
}
