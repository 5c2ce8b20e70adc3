package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"github.com/lgch/luna/internal/agent"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/store"
	"github.com/lgch/luna/internal/voice"
)

// Media stream event names.
const (
	EventStart    = "start"
	EventMedia    = "media"
	EventStop     = "stop"
	EventMark     = "mark"
	EventResponse = "response"

	// MarkUserTurnEnd ends the caller's turn without stopping the stream.
	MarkUserTurnEnd = "user_turn_end"

	// MarkAgentTurnComplete is sent after each reply.
	MarkAgentTurnComplete = "agent_turn_complete"
)

const (
	mediaWriteTimeout  = 10 * time.Second
	recordingSaveLimit = 30 * time.Second
)

// MediaMessage is a Twilio Media Streams message. Outbound replies reuse it
// with the "response" event and Text set.
type MediaMessage struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *MediaStart   `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Mark      *MediaMark    `json:"mark,omitempty"`
	Text      string        `json:"text,omitempty"`
}

// MediaStart describes the stream and call in a start event.
type MediaStart struct {
	StreamSID        string            `json:"streamSid"`
	CallSID          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// MediaPayload carries base64 encoded 8 kHz mu-law audio.
type MediaPayload struct {
	Track   string `json:"track,omitempty"`
	Payload string `json:"payload"`
}

// MediaMark names a playback marker.
type MediaMark struct {
	Name string `json:"name"`
}

// callSession is the state of one media stream connection. Only the
// reading goroutine touches the buffers; writes go through send.
type callSession struct {
	conn *websocket.Conn
	wmu  sync.Mutex

	streamSID   string
	callSID     string
	from        string
	to          string
	turn        []byte
	call        []byte
	transcripts []string
}

func (c *callSession) send(msg MediaMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(mediaWriteTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *callSession) threadID() string {
	return agent.CallThread(c.callSID)
}

// handleMediaStream serves a Twilio Media Streams WebSocket for one call.
func (s *HTTPServer) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("media stream upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	ctx := s.serverContext.Context()
	metrics := s.serverContext.Metrics()
	metrics.IncrementActiveCalls(ctx)
	defer metrics.DecrementActiveCalls(ctx)

	sess := &callSession{conn: conn}
	logger := s.logger

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("media stream closed unexpectedly", logging.Err(err))
			}
			break
		}

		var msg MediaMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("invalid media stream message", logging.Err(err))
			continue
		}

		switch msg.Event {
		case EventStart:
			s.startCall(sess, msg)
			logger = s.logger.With(logging.CallSID(sess.callSID), logging.StreamSID(sess.streamSID))
			logger.Info("media stream started", logging.Phone(sess.from))

		case EventMedia:
			if msg.Media == nil {
				continue
			}
			chunk, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				logger.Warn("invalid media payload", logging.Err(err))
				continue
			}
			sess.turn = append(sess.turn, chunk...)
			sess.call = append(sess.call, chunk...)

		case EventMark:
			if msg.Mark != nil && msg.Mark.Name == MarkUserTurnEnd {
				s.processTurn(ctx, logger, sess)
			}

		case EventStop:
			s.processTurn(ctx, logger, sess)

		default:
			logger.Debug("ignoring media stream event", slog.String("event", msg.Event))
		}
	}

	s.saveCall(ctx, logger, sess)
	logger.Info("media stream closed")
}

func (s *HTTPServer) startCall(sess *callSession, msg MediaMessage) {
	sess.streamSID = msg.StreamSID
	if msg.Start == nil {
		return
	}
	if msg.Start.StreamSID != "" {
		sess.streamSID = msg.Start.StreamSID
	}
	sess.callSID = msg.Start.CallSID
	sess.from = msg.Start.CustomParameters["from"]
	sess.to = msg.Start.CustomParameters["to"]
}

// processTurn transcribes the buffered caller audio, answers it and sends
// the reply followed by the agent_turn_complete mark.
func (s *HTTPServer) processTurn(ctx context.Context, logger *slog.Logger, sess *callSession) {
	if len(sess.turn) == 0 {
		logger.Debug("no audio buffered for turn")
		return
	}
	pcm := voice.MulawToPCM(sess.turn)
	sess.turn = nil

	if s.config.Transcriber == nil {
		logger.Warn("no transcriber configured, dropping caller audio")
		return
	}

	text, err := s.transcribe(ctx, sess.callSID, pcm)
	if err != nil {
		logger.Error("transcription failed", logging.Err(err))
		return
	}
	text = strings.TrimSpace(text)
	if len(text) < 2 {
		logger.Debug("transcript too short", slog.String("transcript", text))
		return
	}
	sess.transcripts = append(sess.transcripts, text)

	caller := instrumentation.Caller{
		Transport: instrumentation.TransportTwilio,
		ThreadID:  sess.threadID(),
		Phone:     sess.from,
	}
	reply, err := s.runPrompt(ctx, caller, text)
	if err != nil {
		reply = ErrorText
	}

	if err := sess.send(MediaMessage{Event: EventResponse, StreamSID: sess.streamSID, Text: reply}); err != nil {
		logger.Warn("failed to send response", logging.Err(err))
		return
	}

	if s.config.Synthesizer != nil {
		if audio, err := s.synthesize(ctx, sess.callSID, reply); err != nil {
			logger.Error("speech synthesis failed", logging.Err(err))
		} else if len(audio) > 0 {
			err := sess.send(MediaMessage{
				Event:     EventMedia,
				StreamSID: sess.streamSID,
				Media:     &MediaPayload{Payload: base64.StdEncoding.EncodeToString(audio)},
			})
			if err != nil {
				logger.Warn("failed to send audio", logging.Err(err))
			}
		}
	}

	if err := sess.send(MediaMessage{Event: EventMark, StreamSID: sess.streamSID, Mark: &MediaMark{Name: MarkAgentTurnComplete}}); err != nil {
		logger.Warn("failed to send mark", logging.Err(err))
	}
}

func (s *HTTPServer) transcribe(ctx context.Context, callSID string, pcm []byte) (string, error) {
	ctx, span := instrumentation.StartVoiceSpan(ctx, instrumentation.OperationTranscribe, callSID)
	defer span.End()

	start := time.Now()
	text, err := s.config.Transcriber.Transcribe(ctx, pcm, voice.PhoneSampleRate)
	s.serverContext.Metrics().RecordVoiceOperation(ctx, instrumentation.OperationTranscribe, statusOf(err), time.Since(start))
	endSpan(span, err)
	return text, err
}

func (s *HTTPServer) synthesize(ctx context.Context, callSID, text string) ([]byte, error) {
	ctx, span := instrumentation.StartVoiceSpan(ctx, instrumentation.OperationSynthesize, callSID)
	defer span.End()

	start := time.Now()
	audio, err := s.config.Synthesizer.Synthesize(ctx, text)
	s.serverContext.Metrics().RecordVoiceOperation(ctx, instrumentation.OperationSynthesize, statusOf(err), time.Since(start))
	endSpan(span, err)
	return audio, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return
	}
	instrumentation.SetSpanSuccess(span)
}

// saveCall writes the call audio to disk and records it. A failed save is
// still recorded, with status failed.
func (s *HTTPServer) saveCall(ctx context.Context, logger *slog.Logger, sess *callSession) {
	if s.config.Recorder == nil {
		return
	}
	if len(sess.call) == 0 || sess.callSID == "" {
		logger.Debug("skipping call recording", slog.Int("audio_bytes", len(sess.call)))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordingSaveLimit)
	defer cancel()

	pcm := voice.MulawToPCM(sess.call)
	rec := &store.CallRecording{
		CallSID:         sess.callSID,
		FromNumber:      sess.from,
		ToNumber:        sess.to,
		DurationSeconds: store.Int64(voice.DurationSeconds(len(pcm), voice.PhoneSampleRate)),
		Transcription:   strings.Join(sess.transcripts, "\n"),
		Status:          store.RecordingCompleted,
	}

	saved, err := s.config.Recorder.Save(sess.callSID, pcm)
	if err != nil {
		logger.Error("failed to save call audio", logging.Err(err))
		rec.RecordingPath = filepath.Join(s.config.Recorder.Dir(), "call_"+sess.callSID+".wav")
		rec.Status = store.RecordingFailed
	} else {
		rec.RecordingPath = saved.Path
		rec.FileSizeBytes = store.Int64(saved.SizeBytes)
		rec.DurationSeconds = store.Int64(saved.DurationSeconds)
	}

	if _, err := s.serverContext.Service().CreateCallRecording(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateCallSID) {
			logger.Warn("call recording already exists")
			return
		}
		logger.Error("failed to record call", logging.Err(err))
		return
	}
	logger.Info("call recording saved",
		slog.String("path", rec.RecordingPath),
		slog.String("status", string(rec.Status)))
}

func statusOf(err error) string {
	if err != nil {
		return instrumentation.StatusError
	}
	return instrumentation.StatusSuccess
}
