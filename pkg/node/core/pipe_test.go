package core

import "io"

// newSlowPipe returns a reader that blocks until the returned writer is
// closed, at which point it reports io.EOF. Used to hold the dispatcher's
// reader goroutine open while a test exercises timers with no inbound
// messages.
func newSlowPipe() (io.Reader, io.WriteCloser) {
	r, w := io.Pipe()
	return r, w
}
