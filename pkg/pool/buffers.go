package pool

const (
	// frameCapacity covers most rows without growing; frames can reach
	// 65537 bytes and grow on demand.
	frameCapacity = 4096

	// maxPooledFrame keeps oversized buffers from pinning memory
	maxPooledFrame = 1 << 17

	rowCapacity = 32
)

var (
	// FramePool recycles byte buffers holding one frame or frame body.
	FramePool = New(
		func() *[]byte {
			b := make([]byte, 0, frameCapacity)
			return &b
		},
		func(b *[]byte) {
			*b = (*b)[:0]
		},
	)

	// RowPool recycles the text fields of one delimited row.
	RowPool = New(
		func() *[]string {
			s := make([]string, 0, rowCapacity)
			return &s
		},
		func(s *[]string) {
			clear(*s)
			*s = (*s)[:0]
		},
	)
)

// GetFrame returns an empty frame buffer.
func GetFrame() *[]byte {
	return FramePool.Get()
}

// PutFrame returns a frame buffer to the pool. Buffers that grew past
// maxPooledFrame are dropped.
func PutFrame(b *[]byte) {
	if b == nil || cap(*b) > maxPooledFrame {
		return
	}
	FramePool.Put(b)
}

// GetRow returns an empty row with room for n fields.
func GetRow(n int) *[]string {
	s := RowPool.Get()
	if cap(*s) < n {
		*s = make([]string, 0, n)
	}
	return s
}

// PutRow returns a row to the pool.
func PutRow(s *[]string) {
	if s == nil {
		return
	}
	RowPool.Put(s)
}
