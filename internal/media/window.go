package media

// Window bounds the number of bytes served for an open-ended range
// ("bytes=N-"). The zero value is Unbounded.
type Window int64

const (
	// Unbounded serves open-ended ranges through to the end of the file.
	Unbounded Window = 0
	// DefaultWindow is the chunk size used by the streaming route.
	DefaultWindow Window = 1 << 20
)

// End returns the inclusive end offset for an open-ended range starting at
// start in a file of the given size. start must be within [0, size).
func (w Window) End(start, size int64) int64 {
	last := size - 1
	if w <= Unbounded {
		return last
	}
	// compare remaining bytes instead of start+w to stay clear of overflow
	if int64(w)-1 >= last-start {
		return last
	}
	return start + int64(w) - 1
}
