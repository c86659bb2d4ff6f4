package navtree

// recordingHost captures every capability call. With deferShow set, show
// completions are queued instead of run so tests can observe Expanding.
type recordingHost struct {
	deferShow bool

	inserted []*Node
	shown    []*Container
	hidden   []*Container
	shownNow []*Container
	scrolled []*Node
	pending  []func()
}

func (h *recordingHost) Insert(_ *Container, n *Node) {
	h.inserted = append(h.inserted, n)
}

func (h *recordingHost) AnimateShow(c *Container, done func()) {
	h.shown = append(h.shown, c)
	if h.deferShow {
		h.pending = append(h.pending, done)
		return
	}
	done()
}

func (h *recordingHost) AnimateHide(c *Container) {
	h.hidden = append(h.hidden, c)
}

func (h *recordingHost) ShowNow(c *Container) {
	h.shownNow = append(h.shownNow, c)
}

func (h *recordingHost) ScrollToCenter(n *Node) {
	h.scrolled = append(h.scrolled, n)
}

// finish runs every queued show completion in order.
func (h *recordingHost) finish() {
	pending := h.pending
	h.pending = nil
	for _, done := range pending {
		done()
	}
}
