package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/lgch/luna/internal/tools/dispatch"
)

// FallbackReply is spoken when no rule matches.
const FallbackReply = "Sorry, I can only manage todos, reminders and calendar events. Try saying: add todo buy milk."

type rule struct {
	pattern *regexp.Regexp
	tool    string
	args    func(m []string) map[string]any
}

var rules = []rule{
	{
		pattern: regexp.MustCompile(`(?i)^(?:add|create)(?: a)? todo(?: to)?:?\s+(.+?)(?:\s+with\s+(low|medium|high|urgent) priority)?$`),
		tool:    "create_todo",
		args: func(m []string) map[string]any {
			args := map[string]any{"title": m[1]}
			if m[2] != "" {
				args["priority"] = m[2]
			}
			return args
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:list|show)(?: my)?(?: (pending|completed))? todos$`),
		tool:    "list_todos",
		args: func(m []string) map[string]any {
			if m[1] == "" {
				return map[string]any{"status": "all"}
			}
			return map[string]any{"status": strings.ToLower(m[1])}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:complete|finish) todo\s+(\S+)$`),
		tool:    "complete_todo",
		args:    func(m []string) map[string]any { return map[string]any{"id": m[1]} },
	},
	{
		pattern: regexp.MustCompile(`(?i)^delete todo\s+(\S+)$`),
		tool:    "delete_todo",
		args:    func(m []string) map[string]any { return map[string]any{"id": m[1]} },
	},
	{
		pattern: regexp.MustCompile(`(?i)^remind me to\s+(.+?)(?:\s+(?:on|at)\s+(.+))?$`),
		tool:    "create_reminder",
		args: func(m []string) map[string]any {
			args := map[string]any{"reminder_text": m[1]}
			if m[2] != "" {
				args["reminder_date"] = m[2]
			}
			return args
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:list|show)(?: my)? reminders$`),
		tool:    "list_reminders",
		args:    func([]string) map[string]any { return nil },
	},
	{
		pattern: regexp.MustCompile(`(?i)^schedule\s+(.+?)\s+from\s+(.+?)\s+to\s+(.+)$`),
		tool:    "create_calendar_event",
		args: func(m []string) map[string]any {
			return map[string]any{"title": m[1], "event_from": m[2], "event_to": m[3]}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:list|show)(?: my)?(?: calendar)? events$`),
		tool:    "list_calendar_events",
		args:    func([]string) map[string]any { return nil },
	},
}

// RuleAgent maps fixed phrases onto tool calls without a language model.
// Matching is case-insensitive and ignores trailing punctuation.
type RuleAgent struct {
	tools *dispatch.Dispatcher
}

// NewRuleAgent returns a RuleAgent calling tools through d.
func NewRuleAgent(d *dispatch.Dispatcher) *RuleAgent {
	return &RuleAgent{tools: d}
}

// HandlePrompt implements PromptHandler. Tool-reported failures are
// returned as the reply; only dispatch failures are errors.
func (a *RuleAgent) HandlePrompt(ctx context.Context, _ string, prompt string) (string, error) {
	text := normalizePrompt(prompt)
	if text == "" {
		return "", ErrEmptyPrompt
	}

	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		res, err := a.tools.Call(ctx, r.tool, r.args(m))
		if err != nil {
			return "", err
		}
		return res.Text, nil
	}
	return FallbackReply, nil
}

func normalizePrompt(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}
