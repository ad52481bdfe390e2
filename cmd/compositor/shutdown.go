package main

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// shutdown hands a signal over to the render thread. closer exits the
// process once its cleanups return, so request blocks until the render
// thread has released the GL objects and terminated glfw.
type shutdown struct {
	mu     sync.Mutex
	window *glfw.Window
	done   chan struct{}
}

func newShutdown() *shutdown {
	return &shutdown{done: make(chan struct{})}
}

// setWindow publishes the window to close, or nil once it is destroyed.
func (s *shutdown) setWindow(w *glfw.Window) {
	s.mu.Lock()
	s.window = w
	s.mu.Unlock()
}

// request asks the frame loop to stop and waits for teardown.
func (s *shutdown) request() {
	s.mu.Lock()
	if s.window != nil {
		s.window.SetShouldClose(true)
	}
	s.mu.Unlock()
	<-s.done
}

// finished is deferred first on the render thread so it runs last.
func (s *shutdown) finished() {
	close(s.done)
}
