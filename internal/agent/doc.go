// Package agent turns a user utterance into a spoken reply.
//
// Every transport (HTTP, Twilio, the media stream and the chat REPL) talks
// to a PromptHandler. Two implementations exist:
//
//   - OpenAIAgent runs a chat completion tool-calling loop against the
//     OpenAI API and keeps per-thread conversation memory.
//   - RuleAgent routes a handful of fixed phrases to the same tools without
//     a language model. It backs tests and offline use.
//
// Both agents reach the todo, reminder and event operations through a
// dispatch.Dispatcher, so they run exactly the handlers exposed on /mcp.
package agent
