package affect

// History keeps the most recent HistorySize windows in a circular buffer.
type History struct {
	windows  [HistorySize]WindowFeatures
	writePos int
	count    int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Push appends w, evicting the oldest window when full.
func (h *History) Push(w WindowFeatures) {
	h.windows[h.writePos] = w
	h.writePos = (h.writePos + 1) % HistorySize
	if h.count < HistorySize {
		h.count++
	}
}

// Len returns the number of stored windows.
func (h *History) Len() int {
	return h.count
}

// IsFull returns true once HistorySize windows are stored.
func (h *History) IsFull() bool {
	return h.count == HistorySize
}

// Windows returns the stored windows, oldest first.
func (h *History) Windows() []WindowFeatures {
	out := make([]WindowFeatures, 0, h.count)
	readPos := (h.writePos - h.count + HistorySize) % HistorySize
	for i := 0; i < h.count; i++ {
		out = append(out, h.windows[(readPos+i)%HistorySize])
	}
	return out
}

