package voice

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/zaf/g711"
)

// Sample rates used on the phone path.
const (
	PhoneSampleRate  = 8000
	SpeechSampleRate = 24000
)

// MulawToPCM decodes G.711 mu-law into 16-bit little-endian PCM.
func MulawToPCM(ulaw []byte) []byte {
	return g711.DecodeUlaw(ulaw)
}

// PCMToMulaw encodes 16-bit little-endian PCM as G.711 mu-law.
func PCMToMulaw(pcm []byte) []byte {
	return g711.EncodeUlaw(pcm)
}

// Downsample resamples 16-bit little-endian mono PCM from one rate to a
// lower one by averaging the source samples that fall in each output slot.
func Downsample(pcm []byte, from, to int) ([]byte, error) {
	if from <= 0 || to <= 0 || to > from {
		return nil, fmt.Errorf("cannot resample from %d Hz to %d Hz", from, to)
	}
	if from == to {
		return pcm, nil
	}

	in := len(pcm) / 2
	outLen := in * to / from
	out := make([]byte, outLen*2)
	for i := 0; i < outLen; i++ {
		start := i * from / to
		end := (i + 1) * from / to
		if end > in {
			end = in
		}
		var sum int
		for j := start; j < end; j++ {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[j*2:])))
		}
		if n := end - start; n > 0 {
			sum /= n
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sum)))
	}
	return out, nil
}

// DurationSeconds returns the whole seconds of 16-bit mono PCM at rate.
func DurationSeconds(pcmBytes, rate int) int64 {
	if rate <= 0 {
		return 0
	}
	return int64(pcmBytes / (rate * 2))
}

// WriteWAV writes 16-bit mono PCM as a WAV file.
func WriteWAV(w io.WriteSeeker, pcm []byte, rate int) error {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// WAVBytes returns 16-bit mono PCM wrapped in an in-memory WAV file.
func WAVBytes(pcm []byte, rate int) ([]byte, error) {
	var buf seekBuffer
	if err := WriteWAV(&buf, pcm, rate); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// ReadWAV decodes a 16-bit mono WAV file into PCM and its sample rate.
func ReadWAV(r io.ReadSeeker) ([]byte, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid wav file")
	}
	if dec.BitDepth != 16 || dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("unsupported wav format: %d bit, %d channels", dec.BitDepth, dec.NumChans)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return pcm, int(dec.SampleRate), nil
}

// seekBuffer is an in-memory io.WriteSeeker for the WAV encoder, which
// rewrites the header sizes after the samples.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = int(abs)
	return abs, nil
}
