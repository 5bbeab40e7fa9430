package capture

// preRoll is a fixed-capacity FIFO of the most recent blocks seen while
// waiting for speech.
type preRoll struct {
	blocks [][]float32
	head   int
	size   int
}

func newPreRoll(capacity int) *preRoll {
	return &preRoll{blocks: make([][]float32, capacity)}
}

func (p *preRoll) Len() int { return p.size }
func (p *preRoll) Cap() int { return len(p.blocks) }

// Push appends block, evicting the oldest one at capacity.
func (p *preRoll) Push(block []float32) {
	if len(p.blocks) == 0 {
		return
	}
	tail := (p.head + p.size) % len(p.blocks)
	p.blocks[tail] = block
	if p.size < len(p.blocks) {
		p.size++
		return
	}
	p.head = (p.head + 1) % len(p.blocks)
}

// Drain returns the held blocks oldest first and empties the ring. The ring
// keeps no reference to them afterwards.
func (p *preRoll) Drain() [][]float32 {
	out := make([][]float32, 0, p.size)
	for i := range p.size {
		idx := (p.head + i) % len(p.blocks)
		out = append(out, p.blocks[idx])
		p.blocks[idx] = nil
	}
	p.head, p.size = 0, 0
	return out
}
