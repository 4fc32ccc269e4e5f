package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-backend/internal/push"
	pushdomain "todo-backend/internal/push/domain"
	pushRepo "todo-backend/internal/push/repository"
	"todo-backend/pkg/localsched"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		userID   string
		interval time.Duration
		usePush  bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Fire local deadline notifications for one user while running",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var primary localsched.Notifier
			if usePush {
				primary = &pushNotifier{userID: userID, subs: a.subRepo, sender: a.sender}
			}
			fallback := &writerNotifier{w: cmd.OutOrStdout()}
			onOpen := func(taskID string) {
				log.Printf("[Watch] open %s/tasks/%s", a.cfg.AppURL, taskID)
			}

			sched := localsched.New(localsched.RealClock, primary, fallback, onOpen)
			defer sched.Close()

			pending := false
			sync := func() {
				tasks, err := a.taskRepo.FindByUserID(ctx, userID, &pending)
				if err != nil {
					log.Printf("[Watch] Failed to load tasks: %v", err)
					return
				}
				sched.Sync(tasks)
				log.Printf("[Watch] %d deadline(s) scheduled", sched.Pending())
			}

			sync()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					sync()
				}
			}
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user whose tasks are watched")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "how often the task list is reloaded")
	cmd.Flags().BoolVar(&usePush, "push", false, "deliver through the user's push subscriptions, printing only on failure")
	return cmd
}

// writerNotifier prints notifications
type writerNotifier struct {
	w io.Writer
}

func (n *writerNotifier) Notify(ctx context.Context, note localsched.Notification) error {
	_, err := fmt.Fprintf(n.w, "[%s] %s: %s\n", time.Now().Format("15:04"), note.Title, note.Body)
	return err
}

// pushNotifier sends local notifications to the user's registered devices
type pushNotifier struct {
	userID string
	subs   pushRepo.SubscriptionRepository
	sender push.Sender
}

func (n *pushNotifier) Notify(ctx context.Context, note localsched.Notification) error {
	subs, err := n.subs.GetByUserID(ctx, n.userID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return fmt.Errorf("no push subscriptions for user %s", n.userID)
	}

	msg := pushdomain.Notification{
		Title: note.Title,
		Body:  note.Body,
		Tag:   note.Tag,
		Data:  pushdomain.NotificationData{TaskID: note.TaskID, URL: "/tasks/" + note.TaskID},
	}
	delivered := 0
	for _, sub := range subs {
		if err := n.sender.Send(ctx, sub, msg); err != nil {
			log.Printf("[Watch] Push to %s failed: %v", sub.DeviceInfo, err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("push failed on all %d device(s)", len(subs))
	}
	return nil
}
