package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for the OpenAI speech models.
const (
	DefaultTranscriptionModel = openai.Whisper1
	DefaultSpeechModel        = openai.TTSModelGPT4oMini
	DefaultVoice              = openai.VoiceFable
	DefaultSpeed              = 1.2
	DefaultInstructions       = "Speak in a cheerful, helpful tone with a brisk pace."
)

// Transcriber turns caller audio into text.
type Transcriber interface {
	// Transcribe converts 16-bit mono PCM at sampleRate into text. Empty
	// audio yields an empty transcript.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}

// Synthesizer turns a reply into phone audio.
type Synthesizer interface {
	// Synthesize returns 8 kHz mu-law audio speaking text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// OpenAIConfig configures the OpenAI speech clients.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func newClient(cfg OpenAIConfig) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(config), nil
}

// WhisperTranscriber transcribes with the OpenAI transcription API.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber returns a transcriber using whisper-1.
func NewWhisperTranscriber(cfg OpenAIConfig) (*WhisperTranscriber, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &WhisperTranscriber{client: client, model: DefaultTranscriptionModel}, nil
}

// Transcribe implements Transcriber.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if len(pcm) < 2 {
		return "", nil
	}
	data, err := WAVBytes(pcm, sampleRate)
	if err != nil {
		return "", err
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// OpenAISynthesizer speaks replies with the OpenAI speech API.
type OpenAISynthesizer struct {
	client       *openai.Client
	model        openai.SpeechModel
	voice        openai.SpeechVoice
	speed        float64
	instructions string
}

// NewOpenAISynthesizer returns a synthesizer using gpt-4o-mini-tts with the
// fable voice.
func NewOpenAISynthesizer(cfg OpenAIConfig) (*OpenAISynthesizer, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAISynthesizer{
		client:       client,
		model:        DefaultSpeechModel,
		voice:        DefaultVoice,
		speed:        DefaultSpeed,
		instructions: DefaultInstructions,
	}, nil
}

// Synthesize implements Synthesizer.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "**", ""))
	if text == "" {
		return nil, nil
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		Instructions:   s.instructions,
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          s.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	phone, err := Downsample(pcm, SpeechSampleRate, PhoneSampleRate)
	if err != nil {
		return nil, err
	}
	return PCMToMulaw(phone), nil
}
