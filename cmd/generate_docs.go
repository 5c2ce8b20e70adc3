package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lgch/luna/internal/google"
	"github.com/lgch/luna/internal/server"
	"github.com/lgch/luna/internal/tools/google_tools"
	"github.com/lgch/luna/internal/tools/luna_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// docTools registers every tool against a server context without a
// database. Handlers are never invoked, only their definitions are read.
func docTools() ([]mcp.Tool, error) {
	// Placeholder credentials so the Google OAuth tools are registered too.
	auth, err := google.NewAuth(google.Config{ClientID: "docs", ClientSecret: "docs"})
	if err != nil {
		return nil, err
	}
	serverContext := server.NewServerContext(context.Background(), nil, server.WithGoogleAuth(auth))
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := newMCPServer()
	if err := luna_tools.RegisterLunaTools(mcpSrv, serverContext); err != nil {
		return nil, fmt.Errorf("failed to register Luna tools: %w", err)
	}
	if err := google_tools.RegisterGoogleTools(mcpSrv, serverContext); err != nil {
		return nil, fmt.Errorf("failed to register Google tools: %w", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	return tools, nil
}

func runGenerateDocs(outputFile string) error {
	tools, err := docTools()
	if err != nil {
		return err
	}

	markdown := generateToolsMarkdown(tools)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running Luna as an MCP server.\n")
	sb.WriteString("The agent answering phone calls and `/run_agent` requests uses the same tools, except the Google authorization ones.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		byCategory[category] = append(byCategory[category], tool)
	}
	categories := slices.Sorted(maps.Keys(byCategory))

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Calendar Mirroring\n\n")
	sb.WriteString("Todo, reminder and event tools write to the database first. When Google Calendar is authorized, each change is then mirrored to the calendar:\n\n")
	sb.WriteString("- **Partial success:** A failed calendar push never fails the tool call, the result reports it instead\n")
	sb.WriteString("- **Retry:** Run `luna resync` to push records whose last push failed\n\n")

	for _, category := range categories {
		categoryTools := byCategory[category]
		slices.SortFunc(categoryTools, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func getCategoryFromToolName(name string) string {
	switch {
	case strings.HasPrefix(name, "google_"):
		return "Google Authorization Tools"
	case strings.Contains(name, "todo"):
		return "Todo Tools"
	case strings.Contains(name, "reminder"):
		return "Reminder Tools"
	case strings.Contains(name, "calendar_event"):
		return "Calendar Event Tools"
	case strings.Contains(name, "call_recording"):
		return "Call Recording Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}
	if hints := toolHints(tool.Annotations); hints != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", hints)
	}

	if len(tool.InputSchema.Properties) == 0 {
		return sb.String()
	}

	sb.WriteString("**Arguments:**\n")
	for _, name := range slices.Sorted(maps.Keys(tool.InputSchema.Properties)) {
		prop, ok := tool.InputSchema.Properties[name].(map[string]any)
		if !ok {
			continue
		}

		requiredStr := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requiredStr = "required"
		}
		fmt.Fprintf(&sb, "- `%s` (%s): ", name, requiredStr)

		if desc, ok := prop["description"].(string); ok {
			sb.WriteString(desc)
		} else {
			fmt.Fprintf(&sb, "%s parameter", getPropertyType(prop))
		}
		if values := enumValues(prop); len(values) > 0 {
			fmt.Fprintf(&sb, " One of: `%s`.", strings.Join(values, "`, `"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// toolHints renders the behavior annotations a caller should know about.
func toolHints(a mcp.ToolAnnotation) string {
	var hints []string
	if a.ReadOnlyHint != nil && *a.ReadOnlyHint {
		hints = append(hints, "Read-only")
	}
	if a.DestructiveHint != nil && *a.DestructiveHint {
		hints = append(hints, "Destructive")
	}
	return strings.Join(hints, ", ")
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func enumValues(prop map[string]any) []string {
	var values []string
	switch enum := prop["enum"].(type) {
	case []string:
		values = enum
	case []any:
		for _, v := range enum {
			values = append(values, fmt.Sprint(v))
		}
	}
	return values
}
