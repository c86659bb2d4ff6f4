package ui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/navtree"
)

// slideFrame is the interval between animation frames.
const slideFrame = 16 * time.Millisecond

// slideTickMsg advances the slide animation with the given id.
type slideTickMsg struct {
	ID uint64
	At time.Time
}

// slide is one in-flight show animation.
type slide struct {
	id    uint64
	start time.Time
	done  func()
}

// TermHost is the terminal implementation of navtree.Host. Containers are
// revealed row by row over the configured duration, driven by tea.Tick; a
// hide cancels a running show on the same container.
//
// Host calls happen synchronously inside Update, so the host only queues
// commands; the owning model drains them with Cmd.
type TermHost struct {
	duration time.Duration
	now      func() time.Time

	nextID  uint64
	slides  map[*navtree.Container]*slide
	pending []tea.Cmd
	center  *navtree.Node
	inserts int
}

// NewTermHost creates a host animating over duration. Zero disables animation.
func NewTermHost(duration time.Duration) *TermHost {
	return &TermHost{
		duration: duration,
		now:      time.Now,
		slides:   make(map[*navtree.Container]*slide),
	}
}

// Insert counts materialized rows; the tree pane reads rows from the engine.
func (h *TermHost) Insert(_ *navtree.Container, _ *navtree.Node) {
	h.inserts++
}

// AnimateShow starts revealing c and calls done once it is fully shown.
func (h *TermHost) AnimateShow(c *navtree.Container, done func()) {
	if h.duration <= 0 {
		delete(h.slides, c)
		done()
		return
	}
	h.nextID++
	s := &slide{id: h.nextID, start: h.now(), done: done}
	h.slides[c] = s
	h.pending = append(h.pending, h.tick(s.id))
}

// AnimateHide hides c at once, abandoning any show still running on it.
func (h *TermHost) AnimateHide(c *navtree.Container) {
	delete(h.slides, c)
}

// ShowNow reveals c without animation.
func (h *TermHost) ShowNow(c *navtree.Container) {
	delete(h.slides, c)
}

// ScrollToCenter records n as the row to center on the next layout pass.
func (h *TermHost) ScrollToCenter(n *navtree.Node) {
	h.center = n
}

// Cmd drains the commands queued by host calls.
func (h *TermHost) Cmd() tea.Cmd {
	if len(h.pending) == 0 {
		return nil
	}
	cmds := h.pending
	h.pending = nil
	return tea.Batch(cmds...)
}

// takeCenter returns and clears the pending center request.
func (h *TermHost) takeCenter() *navtree.Node {
	n := h.center
	h.center = nil
	return n
}

func (h *TermHost) tick(id uint64) tea.Cmd {
	return tea.Tick(slideFrame, func(t time.Time) tea.Msg {
		return slideTickMsg{ID: id, At: t}
	})
}

// handleTick advances the slide named by msg, finishing it when its time is
// up. Ticks for abandoned slides are dropped.
func (h *TermHost) handleTick(msg slideTickMsg) tea.Cmd {
	for c, s := range h.slides {
		if s.id != msg.ID {
			continue
		}
		if msg.At.Sub(s.start) >= h.duration {
			delete(h.slides, c)
			s.done()
			return h.Cmd()
		}
		return h.tick(s.id)
	}
	return nil
}

// settle finishes every running slide immediately.
func (h *TermHost) settle() {
	for c, s := range h.slides {
		delete(h.slides, c)
		s.done()
	}
}

// reset forgets slides and requests left over from a previous tree. Their
// ticks are dropped when they arrive.
func (h *TermHost) reset() {
	h.slides = make(map[*navtree.Container]*slide)
	h.center = nil
	h.inserts = 0
}

// animating reports whether any slide is running.
func (h *TermHost) animating() bool {
	return len(h.slides) > 0
}

// reveal returns how many of total rows of c are shown right now.
func (h *TermHost) reveal(c *navtree.Container, total int) int {
	s, ok := h.slides[c]
	if !ok || h.duration <= 0 {
		return total
	}
	frac := float64(h.now().Sub(s.start)) / float64(h.duration)
	if frac >= 1 {
		return total
	}
	if frac < 0 {
		frac = 0
	}
	return int(math.Ceil(frac * float64(total)))
}
