package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/lgch/luna/internal/agent"
	"github.com/lgch/luna/internal/config"
	"github.com/lgch/luna/internal/instrumentation"
	"github.com/lgch/luna/internal/logging"
)

// chatExitWords end an interactive session.
var chatExitWords = map[string]bool{
	"exit":    true,
	"quit":    true,
	"bye":     true,
	"goodbye": true,
	"/exit":   true,
	"/quit":   true,
}

func newChatCmd() *cobra.Command {
	var agentKind string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to Luna in the terminal",
		Long: `Start an interactive session with the Luna agent.

Each line is sent as a prompt, and the conversation is remembered until the
session ends. Type "exit" or press Ctrl-D to leave.

The rules agent (--agent rules) understands fixed phrases such as
"add todo buy milk" or "list reminders" and needs no OpenAI key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("agent") {
				cfg.Agent.Kind = agentKind
			}
			if cfg.Agent.Kind == config.AgentOpenAI && cfg.OpenAI.APIKey == "" {
				return errors.New("OPENAI_API_KEY is required for the openai agent, use --agent rules to chat without it")
			}
			return runChat(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&agentKind, "agent", config.AgentOpenAI, "Agent: openai or rules")

	return cmd
}

// newChatLogger keeps the terminal quiet unless debugging.
func newChatLogger(w io.Writer, debug bool) *slog.Logger {
	if debug {
		return newLogger(w, true)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func runChat(cmd *cobra.Command, cfg *config.Config) error {
	logger := newChatLogger(cmd.ErrOrStderr(), cfg.Debug)

	// Conversation memory stays in process so chat can run beside serve,
	// which holds the Badger directory lock.
	a, err := newApp(cmd.Context(), cfg, logger, appOptions{agent: true})
	if err != nil {
		return err
	}
	defer a.Close()

	out := newPrinter(cmd.OutOrStdout())
	input := newLineInput(cmd.InOrStdin(), cmd.OutOrStdout())
	defer input.Close()

	fmt.Fprintln(out.w, out.title(cfg.Agent.Name)+out.muted(" ("+cfg.Agent.Kind+" agent, type exit to quit)"))
	return chatLoop(cmd.Context(), a.agent, input, out, agent.NewCLIThread(), logger)
}

// chatLoop sends each input line to h until the user leaves or input ends.
func chatLoop(ctx context.Context, h agent.PromptHandler, in lineInput, out *printer, thread string, logger *slog.Logger) error {
	ctx = instrumentation.WithCaller(ctx, instrumentation.Caller{
		Transport: instrumentation.TransportCLI,
		ThreadID:  thread,
	})

	for {
		line, err := in.ReadLine(out.render(styleYou, "you> "))
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(out.w)
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		prompt := strings.TrimSpace(line)
		if prompt == "" {
			continue
		}
		if chatExitWords[strings.ToLower(prompt)] {
			fmt.Fprintln(out.w, out.muted("Goodbye!"))
			return nil
		}

		reply, err := h.HandlePrompt(ctx, thread, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debug("prompt failed", logging.Thread(thread), logging.Err(err))
			fmt.Fprintln(out.w, out.failure("error: ")+err.Error())
			continue
		}
		fmt.Fprintln(out.w, out.render(styleLuna, "luna> ")+reply)
	}
}
