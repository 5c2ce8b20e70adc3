package server

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"

	"github.com/lgch/luna/internal/agent"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
)

// Spoken texts of the Twilio voice flow.
const (
	TwilioVoice = "Polly.Amy"

	GreetingText      = "Hello! I'm Luna, your personal productivity assistant. How can I help you today?"
	ContinuationText  = "What else can I help you with?"
	NoInputText       = "I didn't hear anything. Please try again."
	NotUnderstoodText = "I didn't catch that. Could you please repeat?"
	GoodbyeText       = "Thank you for using Luna! Have a great day!"
	ErrorText         = "I'm sorry, I encountered an error processing your request. Please try again."
)

const (
	twilioCallPath         = "/twilio/call"
	twilioProcessAudioPath = "/twilio/process_audio"
	twilioContinuationURL  = twilioCallPath + "?is_continuation=true"
	twilioSignatureHeader  = "X-Twilio-Signature"
)

// exitPhrase matches an utterance that is only a request to end the call,
// allowing short fillers around it. "Mark the laundry todo as done" is a
// command, not a goodbye.
var exitPhrase = regexp.MustCompile(`(?i)^(?:(?:ok|okay|no|alright|all right|well|great|so|and|please|i['’]m|i am|we['’]re|we are|that['’]s all)[\s,.!]+)*` +
	`(?:exit|goodbye|good bye|bye|that['’]s it|that is it|thank you|thanks|done|finished|end (?:the )?call|hang up)` +
	`(?:[\s,.!]+(?:luna|bye|goodbye|thanks|thank you|for now|for today|then|now))*[\s,.!]*$`)

// IsExitPhrase reports whether a speech result ends the call.
func IsExitPhrase(speech string) bool {
	return exitPhrase.MatchString(strings.TrimSpace(speech))
}

// handleTwilioCall answers an incoming call (or a continuation) with a
// speech Gather.
func (s *HTTPServer) handleTwilioCall(w http.ResponseWriter, r *http.Request) {
	prompt := GreetingText
	if strings.EqualFold(r.URL.Query().Get("is_continuation"), "true") {
		prompt = ContinuationText
	}

	s.logger.Debug("incoming call",
		logging.CallSID(r.PostFormValue("CallSid")),
		logging.Phone(r.PostFormValue("From")))
	s.writeTwiML(w, gatherResponse(prompt))
}

// handleTwilioProcessAudio answers the speech result of a Gather.
func (s *HTTPServer) handleTwilioProcessAudio(w http.ResponseWriter, r *http.Request) {
	speech := strings.TrimSpace(r.PostFormValue("SpeechResult"))
	callSID := r.PostFormValue("CallSid")
	logger := s.logger.With(logging.Service(instrumentation.ServiceTwilio), logging.CallSID(callSID))

	if len(speech) < 2 {
		logger.Debug("speech result too short", slog.String("speech", speech))
		s.writeTwiML(w, gatherResponse(NotUnderstoodText))
		return
	}

	if IsExitPhrase(speech) {
		logger.Info("caller ended the call")
		s.writeTwiML(w, []twiml.Element{
			say(GoodbyeText),
			&twiml.VoiceHangup{},
		})
		return
	}

	caller := instrumentation.Caller{
		Transport: instrumentation.TransportTwilio,
		ThreadID:  agent.CallThread(callSID),
		Phone:     r.PostFormValue("From"),
	}
	reply, err := s.runPrompt(r.Context(), caller, speech)
	if err != nil {
		s.writeTwiML(w, gatherResponse(ErrorText))
		return
	}
	s.writeTwiML(w, gatherResponse(reply))
}

// gatherResponse speaks text inside a barge-in speech Gather, followed by
// the no-input fallback and a redirect back to the call webhook.
func gatherResponse(text string) []twiml.Element {
	return []twiml.Element{
		&twiml.VoiceGather{
			Input:         "speech",
			Action:        twilioProcessAudioPath,
			Method:        http.MethodPost,
			SpeechTimeout: "auto",
			Timeout:       "10",
			BargeIn:       "true",
			InnerElements: []twiml.Element{say(text)},
		},
		say(NoInputText),
		&twiml.VoiceRedirect{Url: twilioContinuationURL},
	}
}

func say(text string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: text, Voice: TwilioVoice}
}

func (s *HTTPServer) writeTwiML(w http.ResponseWriter, verbs []twiml.Element) {
	doc, err := twiml.Voice(verbs)
	if err != nil {
		s.logger.Error("failed to render TwiML", logging.Err(err))
		http.Error(w, "failed to render TwiML", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(doc))
}

// validateTwilio rejects webhook requests whose X-Twilio-Signature does not
// match. Validation is skipped when no auth token is configured.
func (s *HTTPServer) validateTwilio(next http.Handler) http.Handler {
	if s.config.TwilioAuthToken == "" {
		return next
	}
	validator := client.NewRequestValidator(s.config.TwilioAuthToken)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		url := s.requestURL(r)
		if !validator.Validate(url, params, r.Header.Get(twilioSignatureHeader)) {
			s.logger.Warn("rejected Twilio request with invalid signature", slog.String("url", url))
			http.Error(w, "invalid Twilio signature", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestURL rebuilds the URL Twilio requested, used as the signature base.
func (s *HTTPServer) requestURL(r *http.Request) string {
	if s.config.PublicURL != "" {
		return s.config.PublicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
