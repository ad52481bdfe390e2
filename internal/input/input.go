// Package input maps glfw keys and mouse buttons to viewer actions with
// per-frame edge detection.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical viewer action, not a physical key.
type Action int

const (
	ActionQuit Action = iota
	ActionToggleSSR
	ActionToggleBloom
	ActionToggleSharpen
	ActionToggleGamma
	ActionToggleMirror
	ActionResetCamera
	ActionDumpProfile
	ActionOrbit
	ActionCount
)

var actionNames = [ActionCount]string{
	ActionQuit:          "quit",
	ActionToggleSSR:     "toggle_ssr",
	ActionToggleBloom:   "toggle_bloom",
	ActionToggleSharpen: "toggle_sharpen",
	ActionToggleGamma:   "toggle_gamma",
	ActionToggleMirror:  "toggle_mirror",
	ActionResetCamera:   "reset_camera",
	ActionDumpProfile:   "dump_profile",
	ActionOrbit:         "orbit",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Manager tracks action state. Events arrive from glfw callbacks; the frame
// loop reads edges and calls PostUpdate once per frame.
type Manager struct {
	mu sync.RWMutex

	keyToActions         map[glfw.Key][]Action
	mouseButtonToActions map[glfw.MouseButton][]Action

	current      [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool
}

// NewManager creates a manager with the default bindings: Escape quits,
// 1-5 toggle SSR, bloom, sharpen, gamma and the mirror, R resets the camera,
// P logs the slowest stages and the left mouse button orbits.
func NewManager() *Manager {
	m := &Manager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
	}
	m.BindKey(glfw.KeyEscape, ActionQuit)
	m.BindKey(glfw.Key1, ActionToggleSSR)
	m.BindKey(glfw.Key2, ActionToggleBloom)
	m.BindKey(glfw.Key3, ActionToggleSharpen)
	m.BindKey(glfw.Key4, ActionToggleGamma)
	m.BindKey(glfw.Key5, ActionToggleMirror)
	m.BindKey(glfw.KeyR, ActionResetCamera)
	m.BindKey(glfw.KeyP, ActionDumpProfile)
	m.BindMouseButton(glfw.MouseButtonLeft, ActionOrbit)
	return m
}

// BindKey adds action to key. A key may drive several actions.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	m.keyToActions[key] = append(m.keyToActions[key], action)
	m.mu.Unlock()
}

// UnbindKey removes every action bound to key.
func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	delete(m.keyToActions, key)
	m.mu.Unlock()
}

func (m *Manager) BindMouseButton(button glfw.MouseButton, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	m.mouseButtonToActions[button] = append(m.mouseButtonToActions[button], action)
	m.mu.Unlock()
}

// HandleKeyEvent records a key event. Repeats count as held.
func (m *Manager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.keyToActions[key], action == glfw.Press || action == glfw.Repeat)
}

func (m *Manager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.mouseButtonToActions[button], action == glfw.Press)
}

// apply updates held state and latches edges until PostUpdate.
func (m *Manager) apply(actions []Action, pressed bool) {
	for _, a := range actions {
		if pressed && !m.current[a] {
			m.justPressed[a] = true
		}
		if !pressed && m.current[a] {
			m.justReleased[a] = true
		}
		m.current[a] = pressed
	}
}

// Attach installs the key and mouse button callbacks on window.
func (m *Manager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleMouseButtonEvent(button, action)
	})
}

// PostUpdate clears the edge flags. Call at the end of each frame.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	clear(m.justPressed[:])
	clear(m.justReleased[:])
	m.mu.Unlock()
}

// IsActive reports whether action is held.
func (m *Manager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current[action]
}

// JustPressed reports a press since the last PostUpdate.
func (m *Manager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

// JustReleased reports a release since the last PostUpdate.
func (m *Manager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}
