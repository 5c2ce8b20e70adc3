package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultRecordingDir is where call audio is saved.
const DefaultRecordingDir = "recordings"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SavedRecording describes a call saved to disk.
type SavedRecording struct {
	Path            string
	SizeBytes       int64
	DurationSeconds int64
}

// RecordingWriter saves call audio as 8 kHz mono 16-bit WAV files named
// call_<sid>_<YYYYMMDD_HHMMSS>.wav.
type RecordingWriter struct {
	dir string
	now func() time.Time
}

// NewRecordingWriter returns a writer saving into dir, created on demand.
func NewRecordingWriter(dir string) *RecordingWriter {
	if dir == "" {
		dir = DefaultRecordingDir
	}
	return &RecordingWriter{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (w *RecordingWriter) Dir() string {
	return w.dir
}

// Save writes the call's PCM audio.
func (w *RecordingWriter) Save(callSID string, pcm []byte) (*SavedRecording, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}

	name := fmt.Sprintf("call_%s_%s.wav", unsafeFileChars.ReplaceAllString(callSID, "_"), w.now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	if err := WriteWAV(f, pcm, PhoneSampleRate); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close recording: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat recording: %w", err)
	}
	return &SavedRecording{
		Path:            path,
		SizeBytes:       info.Size(),
		DurationSeconds: DurationSeconds(len(pcm), PhoneSampleRate),
	}, nil
}
