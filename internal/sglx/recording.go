package sglx

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Recording is an opened raw .bin file paired with its metadata. Sample
// frames are interleaved across channels, one little-endian int16 per
// channel per frame.
type Recording struct {
	Meta Meta

	raw    []byte
	nChans int
	sr     float64
	i2v    float64
}

// ChannelRangeError reports a channel index outside a recording's frame.
type ChannelRangeError struct {
	Channel int
	NChans  int
}

func (e *ChannelRangeError) Error() string {
	return fmt.Sprintf("channel %d out of range for %d-channel recording", e.Channel, e.NChans)
}

// Open reads a .bin recording and its sibling .meta file.
func Open(binPath string) (*Recording, error) {
	meta, err := ReadMeta(binPath)
	if err != nil {
		return nil, err
	}
	nChans, err := meta.NChans()
	if err != nil {
		return nil, err
	}
	if nChans <= 0 {
		return nil, fmt.Errorf("recording %s declares %d channels", binPath, nChans)
	}
	sr, err := meta.SampRate()
	if err != nil {
		return nil, err
	}
	i2v, err := meta.Int2Volts()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(binPath)
	if err != nil {
		return nil, fmt.Errorf("read recording data: %w", err)
	}
	frame := 2 * nChans
	if len(raw)%frame != 0 {
		return nil, fmt.Errorf("recording %s: %d bytes is not a whole number of %d-channel frames", binPath, len(raw), nChans)
	}
	return &Recording{Meta: meta, raw: raw, nChans: nChans, sr: sr, i2v: i2v}, nil
}

// SampRate returns the stream sample rate in Hz.
func (r *Recording) SampRate() float64 { return r.sr }

// NChans returns the number of channels per frame.
func (r *Recording) NChans() int { return r.nChans }

// NSamples returns the number of sample frames in the recording.
func (r *Recording) NSamples() int { return len(r.raw) / (2 * r.nChans) }

func (r *Recording) sample(ch, s int) int16 {
	off := 2 * (s*r.nChans + ch)
	return int16(binary.LittleEndian.Uint16(r.raw[off:]))
}

// Counts returns one channel as raw int16 counts widened to float64.
func (r *Recording) Counts(ch int) ([]float64, error) {
	if ch < 0 || ch >= r.nChans {
		return nil, &ChannelRangeError{Channel: ch, NChans: r.nChans}
	}
	out := make([]float64, r.NSamples())
	for s := range out {
		out[s] = float64(r.sample(ch, s))
	}
	return out, nil
}

// Analog returns one channel scaled to volts.
func (r *Recording) Analog(ch int) ([]float64, error) {
	out, err := r.Counts(ch)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] *= r.i2v
	}
	return out, nil
}

// AnalogWindow returns one channel in volts over [t0, tf) seconds of
// recording time, along with the matching time vector.
func (r *Recording) AnalogWindow(ch int, t0, tf float64) (tvec, dat []float64, err error) {
	if ch < 0 || ch >= r.nChans {
		return nil, nil, &ChannelRangeError{Channel: ch, NChans: r.nChans}
	}
	n := r.NSamples()
	s0 := int(math.Ceil(t0 * r.sr))
	sf := int(math.Ceil(tf * r.sr))
	if s0 < 0 {
		s0 = 0
	}
	if sf > n {
		sf = n
	}
	if s0 >= sf {
		return nil, nil, fmt.Errorf("window [%g, %g) selects no samples", t0, tf)
	}
	tvec = make([]float64, sf-s0)
	dat = make([]float64, sf-s0)
	for i := range dat {
		tvec[i] = float64(s0+i) / r.sr
		dat[i] = float64(r.sample(ch, s0+i)) * r.i2v
	}
	return tvec, dat, nil
}

// DigitalBit unpacks one line from a digital word channel. Each sample of
// channel ch is treated as a 16-bit word; the returned slice is true where
// the requested bit is set.
func (r *Recording) DigitalBit(ch, bit int) ([]bool, error) {
	if ch < 0 || ch >= r.nChans {
		return nil, &ChannelRangeError{Channel: ch, NChans: r.nChans}
	}
	if bit < 0 || bit > 15 {
		return nil, fmt.Errorf("digital line %d out of range for 16-bit word", bit)
	}
	out := make([]bool, r.NSamples())
	for s := range out {
		out[s] = uint16(r.sample(ch, s))>>uint(bit)&1 == 1
	}
	return out, nil
}
