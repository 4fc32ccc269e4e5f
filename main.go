package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"todo-backend/internal/jobs"
	"todo-backend/internal/scheduler"
	"todo-backend/internal/trigger"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "todo-backend",
		Short: "Task deadlines, recurring instances and reminders",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var noCron bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the job scheduler and the Pub/Sub trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// In-process cron
			if !noCron {
				sched := scheduler.New(a.cfg.Location(), a.registry)
				specs := map[string]string{
					jobs.Dispatch: a.cfg.DispatchSchedule,
					jobs.Overdue:  a.cfg.OverdueSchedule,
					jobs.Water:    a.cfg.WaterSchedule,
					jobs.Generate: a.cfg.GenerateSchedule,
					jobs.Prune:    a.cfg.PruneSchedule,
				}
				if a.cfg.CalendarEnabled() {
					specs[jobs.Refresh] = a.cfg.RefreshSchedule
				}
				for name, spec := range specs {
					if err := sched.Schedule(name, spec); err != nil {
						return err
					}
				}
				sched.Start()
				defer sched.Stop()
			}

			// Pub/Sub trigger, only if project and topic are configured
			if a.cfg.GoogleProjectID != "" && a.pubsubTopic() != "" {
				svc, err := trigger.NewService(ctx, a.cfg.GoogleProjectID, a.pubsubTopic(), a.cfg.GoogleCredentialsFile, a.registry)
				if err != nil {
					log.Printf("[WARN] Failed to initialize Pub/Sub trigger: %v", err)
				} else {
					defer svc.Close()
					go svc.Start(ctx)
				}
			}

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           a.handler().Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				log.Printf("Server starting on port %s", a.cfg.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("Server error: %v", err)
					stop()
				}
			}()

			<-ctx.Done()
			log.Println("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&noCron, "no-cron", false, "rely on /api/jobs or Pub/Sub instead of the in-process scheduler")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [job]",
		Short: "Run one job (dispatch, overdue, water, generate, refresh, prune) and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.registry.Run(ctx, args[0])
			if err != nil {
				if errors.Is(err, jobs.ErrUnknownJob) {
					return fmt.Errorf("%w (available: %v)", err, a.registry.Names())
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}
