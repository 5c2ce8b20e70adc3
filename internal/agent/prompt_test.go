package agent

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "system_prompt", []byte(SystemPrompt("", now)))
}
