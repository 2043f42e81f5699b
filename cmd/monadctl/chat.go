package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phynics/monad-project-sub004/internal/engine"
)

// buildChatCmd builds the interactive REPL: one session, one working tool
// registry, and a loop over stdin driving ChatEngine.ChatStream and
// printing its event stream as it arrives.
func buildChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session against the configured model",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := rt.bootstrapSession(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s (working dir %s)\n", sess.ID, sess.WorkingDir)

			schedRegistry, schedRouter, err := rt.buildToolchain(sess, nil)
			if err != nil {
				return fmt.Errorf("build scheduler toolchain: %w", err)
			}
			scheduler := rt.newScheduler(schedRegistry, schedRouter)
			scheduler.Start(ctx)
			defer scheduler.Stop(ctx)

			registry, router, err := rt.buildToolchain(sess, scheduler)
			if err != nil {
				return fmt.Errorf("build toolchain: %w", err)
			}

			chatEngine := rt.newChatEngine(registry, router)

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprintln(out, "type a message and press enter; ctrl-d to exit")
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := runTurn(ctx, chatEngine, sess.ID, line, out); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing session id instead of starting a new one")
	return cmd
}

// runTurn drives one chatStream call to completion, printing deltas inline
// as they arrive and a one-line status for tool dispatches.
func runTurn(ctx context.Context, chatEngine *engine.ChatEngine, sessionID, message string, out io.Writer) error {
	events, err := chatEngine.ChatStream(ctx, engine.Request{SessionID: sessionID, Message: message})
	if err != nil {
		return err
	}

	for ev := range events {
		switch ev.Type {
		case engine.EventDelta:
			fmt.Fprint(out, ev.Content)
		case engine.EventToolExecution:
			te := ev.ToolExecution
			switch te.Status {
			case engine.ToolAttempting:
				fmt.Fprintf(out, "\n[tool] %s...\n", te.Name)
			case engine.ToolFailure:
				fmt.Fprintf(out, "[tool] %s failed: %s\n", te.Name, te.Error)
			}
		case engine.EventGenerationCompleted:
			fmt.Fprintln(out)
		case engine.EventGenerationCancelled:
			fmt.Fprintln(out, "\n[cancelled]")
		case engine.EventError:
			fmt.Fprintf(out, "\n[error] %s\n", ev.Err)
		}
	}
	return nil
}
