package ui

// maxHistory bounds how many pages are remembered behind the current one.
const maxHistory = 100

// PageHistory is the browser-style back/forward list of visited pages. It is
// kept in memory only.
type PageHistory struct {
	back    []string
	forward []string
	current string
}

// NewPageHistory starts a history at page.
func NewPageHistory(page string) PageHistory {
	return PageHistory{current: page}
}

// Current returns the page being shown.
func (h PageHistory) Current() string {
	return h.current
}

// Visit records a navigation to page. Visiting the current page is a no-op;
// any other visit clears the forward list.
func (h *PageHistory) Visit(page string) {
	if page == h.current {
		return
	}
	if h.current != "" {
		h.back = append(h.back, h.current)
		if len(h.back) > maxHistory {
			h.back = h.back[len(h.back)-maxHistory:]
		}
	}
	h.forward = nil
	h.current = page
}

// Back steps to the previous page. It returns false when there is none.
func (h *PageHistory) Back() (string, bool) {
	if len(h.back) == 0 {
		return "", false
	}
	prev := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.forward = append(h.forward, h.current)
	h.current = prev
	return prev, true
}

// Forward re-visits the page Back left. It returns false when there is none.
func (h *PageHistory) Forward() (string, bool) {
	if len(h.forward) == 0 {
		return "", false
	}
	next := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.back = append(h.back, h.current)
	h.current = next
	return next, true
}

// CanBack reports whether Back would move.
func (h PageHistory) CanBack() bool { return len(h.back) > 0 }

// CanForward reports whether Forward would move.
func (h PageHistory) CanForward() bool { return len(h.forward) > 0 }
