package voice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewWhisperTranscriber(OpenAIConfig{})
	assert.Error(t, err)
	_, err = NewOpenAISynthesizer(OpenAIConfig{})
	assert.Error(t, err)
}

func TestWhisperTranscriber(t *testing.T) {
	var gotModel string
	var gotAudio []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		gotAudio, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  add a todo to buy milk  "})
	}))
	defer srv.Close()

	tr, err := NewWhisperTranscriber(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	text, err := tr.Transcribe(context.Background(), pcmOf(1, 2, 3, 4), PhoneSampleRate)
	require.NoError(t, err)
	assert.Equal(t, "add a todo to buy milk", text)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "RIFF", string(gotAudio[:4]))

	text, err = tr.Transcribe(context.Background(), nil, PhoneSampleRate)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAISynthesizer(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "audio/pcm")
		_, _ = w.Write(make([]byte, 600))
	}))
	defer srv.Close()

	s, err := NewOpenAISynthesizer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	audio, err := s.Synthesize(context.Background(), "**Done.** Buy milk was added.")
	require.NoError(t, err)
	assert.Len(t, audio, 100)
	assert.Equal(t, "gpt-4o-mini-tts", req["model"])
	assert.Equal(t, "fable", req["voice"])
	assert.Equal(t, "pcm", req["response_format"])
	assert.Equal(t, 1.2, req["speed"])
	assert.Equal(t, "Done. Buy milk was added.", req["input"])

	audio, err = s.Synthesize(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, audio)
}
