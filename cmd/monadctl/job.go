package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// buildJobCmd groups autonomous-job operations: submitting work to the Job
// Scheduler and polling a submitted job's outcome, independent of any
// interactive chat session.
func buildJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Submit and inspect autonomous jobs run by the job scheduler",
	}
	cmd.AddCommand(buildJobSubmitCmd(), buildJobGetCmd())
	return cmd
}

func buildJobSubmitCmd() *cobra.Command {
	var sessionID, agentRef, title string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <description>",
		Short: "Enqueue a job for the reasoning engine to run to completion",
		Args:  cobra.ExactArgs(1),
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

			if agentRef == "" {
				agentRef = "default"
			}
			job := models.Job{
				ID:          uuid.NewString(),
				SessionID:   sess.ID,
				AgentRef:    agentRef,
				Title:       title,
				Description: args[0],
				Status:      models.JobPending,
				NextRunAt:   time.Now(),
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}

			schedRegistry, schedRouter, err := rt.buildToolchain(sess, nil)
			if err != nil {
				return fmt.Errorf("build toolchain: %w", err)
			}
			scheduler := rt.newScheduler(schedRegistry, schedRouter)

			submitted, err := scheduler.Submit(ctx, job)
			if err != nil {
				return fmt.Errorf("submit job: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "submitted job %s on session %s\n", submitted.ID, sess.ID)

			if !wait {
				return nil
			}

			scheduler.Start(ctx)
			defer scheduler.Stop(ctx)
			return pollJobToCompletion(ctx, rt, submitted.ID, out)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Attach the job to an existing session instead of creating one")
	cmd.Flags().StringVar(&agentRef, "agent", "default", "Agent reference the reasoning engine resolves for this job")
	cmd.Flags().StringVar(&title, "title", "", "Human-readable job title")
	cmd.Flags().BoolVar(&wait, "wait", false, "Run the scheduler in-process and block until the job reaches a terminal state")
	return cmd
}

func buildJobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Print a job's current status and log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(configPath)
			if err != nil {
				return err
			}
			job, err := rt.st.GetJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get job: %w", err)
			}
			printJob(cmd.OutOrStdout(), job)
			return nil
		},
	}
}

func pollJobToCompletion(ctx context.Context, rt *runtime, jobID string, out io.Writer) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			job, err := rt.st.GetJob(ctx, jobID)
			if err != nil {
				return fmt.Errorf("poll job: %w", err)
			}
			if job.Status == models.JobCompleted || job.Status == models.JobFailed {
				printJob(out, job)
				return nil
			}
		}
	}
}

func printJob(out io.Writer, job *models.Job) {
	fmt.Fprintf(out, "%s\t%s\t%s\n", job.ID, job.Status, job.Title)
	for _, line := range job.Log {
		fmt.Fprintf(out, "  %s\n", line)
	}
}
