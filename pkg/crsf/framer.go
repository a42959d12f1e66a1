package crsf

// FramerStats counts framing outcomes.
type FramerStats struct {
	Frames    uint64
	Resyncs   uint64
	CrcErrors uint64
	Overflows uint64
	Flushed   uint64
}

// FeedResult is the outcome of feeding bytes to a Framer.
type FeedResult struct {
	// Frames are the CRC verified frames in arrival order.
	Frames []Frame
	// Skipped are the bytes dropped one at a time while resyncing.
	Skipped []byte
	// Errors are diagnostics: *MalformedLengthError or *CrcMismatchError.
	Errors []error
}

// Framer assembles frames from a byte stream. It owns the receive buffer.
type Framer struct {
	buf        []byte
	n          int
	maxPayload int
	stats      FramerStats
}

// NewFramer creates a Framer with the buffer capacity and the maximum
// payload size. Zero values select the protocol limits.
func NewFramer(capacity, maxPayload int) *Framer {
	if capacity <= 0 {
		capacity = MaxFrameSize
	}
	if maxPayload <= 0 || maxPayload > MaxPayloadSize {
		maxPayload = MaxPayloadSize
	}
	return &Framer{buf: make([]byte, capacity), maxPayload: maxPayload}
}

// Len returns the number of buffered bytes.
func (f *Framer) Len() int {
	return f.n
}

// Stats returns the counters.
func (f *Framer) Stats() FramerStats {
	return f.stats
}

// Reset drops buffered bytes.
func (f *Framer) Reset() {
	f.n = 0
}

// Feed consumes bytes. The result does not depend on how the stream is
// split across calls.
func (f *Framer) Feed(p []byte) (r FeedResult) {
	for _, b := range p {
		f.buf[f.n] = b
		f.n++
		f.process(&r)
		if f.n == len(f.buf) {
			f.n = 0
			f.stats.Overflows++
		}
	}
	return
}

// Flush drops all buffered bytes and returns them in order.
func (f *Framer) Flush() []byte {
	if f.n == 0 {
		return nil
	}
	out := append([]byte(nil), f.buf[:f.n]...)
	f.stats.Flushed += uint64(f.n)
	f.n = 0
	return out
}

func (f *Framer) process(r *FeedResult) {
	for f.n > 1 {
		length := int(f.buf[1])
		if length < minLength || length > f.maxPayload+2 {
			r.Errors = append(r.Errors, &MalformedLengthError{Length: f.buf[1]})
			r.Skipped = append(r.Skipped, f.buf[0])
			f.stats.Resyncs++
			f.shift(1)
			continue
		}
		if f.n < length+2 {
			return
		}
		typ := FrameType(f.buf[2])
		want, got := CRC8(f.buf[2:length+1]), f.buf[length+1]
		if want == got {
			r.Frames = append(r.Frames, Frame{
				Address: f.buf[0],
				Type:    typ,
				Payload: append([]byte(nil), f.buf[3:length+1]...),
			})
			f.stats.Frames++
		} else {
			r.Errors = append(r.Errors, &CrcMismatchError{Type: typ, Want: want, Got: got})
			f.stats.CrcErrors++
		}
		f.shift(length + 2)
	}
}

func (f *Framer) shift(cnt int) {
	if cnt >= f.n {
		f.n = 0
		return
	}
	copy(f.buf, f.buf[cnt:f.n])
	f.n -= cnt
}
