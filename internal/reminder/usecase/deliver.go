// Package usecase holds the periodic jobs that push reminders to user devices.
package usecase

import (
	"context"
	"fmt"
	"log"

	"todo-backend/internal/push"
	pushdomain "todo-backend/internal/push/domain"
	pushrepo "todo-backend/internal/push/repository"
)

// Delivery counts per-subscription outcomes of one fan-out
type Delivery struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Removed int `json:"removed"`
}

func (d *Delivery) add(o Delivery) {
	d.Sent += o.Sent
	d.Failed += o.Failed
	d.Removed += o.Removed
}

// deliver sends n to every device of the user. Transport failures are counted;
// only a failure to read the subscriptions is returned.
func deliver(ctx context.Context, subs pushrepo.SubscriptionRepository, sender push.Sender, userID string, n pushdomain.Notification) (Delivery, error) {
	var out Delivery

	devices, err := subs.GetByUserID(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("load subscriptions for user %s: %w", userID, err)
	}
	if len(devices) == 0 {
		log.Printf("[Push] No subscriptions for user %s", userID)
		return out, nil
	}

	for _, sub := range devices {
		if err := sender.Send(ctx, sub, n); err != nil {
			out.Failed++
			if push.IsGone(err) {
				if err := subs.DeleteToken(ctx, sub.Token); err != nil {
					log.Printf("[Push] Error removing expired subscription %s: %v", sub.ID, err)
					continue
				}
				out.Removed++
				log.Printf("[Push] Removed expired subscription %s for user %s", sub.ID, userID)
				continue
			}
			log.Printf("[Push] Error sending %q to subscription %s: %v", n.Tag, sub.ID, err)
			continue
		}
		out.Sent++
	}
	return out, nil
}
