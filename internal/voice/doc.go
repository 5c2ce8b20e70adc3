// Package voice converts between phone audio and text.
//
// Twilio Media Streams carry 8 kHz mono G.711 mu-law. Speech is transcribed
// with Whisper from an in-memory WAV and replies are synthesized as 24 kHz
// PCM, downsampled and mu-law encoded before being streamed back. Whole
// calls are saved as 8 kHz 16-bit WAV files.
package voice
