package notify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"
	"cryptoTradeJournal/internal/report"
)

// DeliveryOutcome tags how a periodic report reached (or failed to reach) a
// recipient, so the persistence decision stays unambiguous: only SentNew
// carries a message id that must be stored.
type DeliveryOutcome int

const (
	// ReportEdited means the previous report message was updated in place.
	ReportEdited DeliveryOutcome = iota
	// ReportSentNew means a fresh message was sent; its id must be persisted.
	ReportSentNew
	// ReportFailed means neither edit nor send succeeded this cycle.
	ReportFailed
)

// Dispatcher delivers urgent alerts and periodic reports over the injected
// notification transport. Transport failures degrade to "not delivered this
// cycle" and are logged; they never abort the batch.
type Dispatcher struct {
	notifier    ports.Notifier
	profileRepo ports.ProfileRepository
	logger      ports.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(notifier ports.Notifier, profileRepo ports.ProfileRepository, logger ports.Logger) (*Dispatcher, error) {
	if notifier == nil || profileRepo == nil || logger == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for dispatcher", ports.ErrConfigurationError)
	}
	return &Dispatcher{notifier: notifier, profileRepo: profileRepo, logger: logger}, nil
}

// DispatchAlerts sends every urgent alert as a new message. Alerts for
// different recipients have no ordering dependency and are issued
// concurrently. There is no dedup against previously sent identical alerts:
// while a condition persists the alert repeats each cycle.
func (d *Dispatcher) DispatchAlerts(ctx context.Context, alerts []report.Alert) {
	var g errgroup.Group
	for _, alert := range alerts {
		alert := alert
		g.Go(func() error {
			if _, err := d.notifier.SendMessage(ctx, alert.ChatID, alert.Text, true); err != nil {
				d.logger.Error(ctx, err, "Failed to deliver urgent alert", map[string]interface{}{
					"chatID": alert.ChatID,
				})
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors, failures are logged above
}

// DispatchReports delivers the periodic report for each profile
// concurrently. Reports without a matching notifiable profile are skipped.
func (d *Dispatcher) DispatchReports(ctx context.Context, reports map[string]string, profiles []*domain.Profile) {
	byChat := make(map[string]*domain.Profile, len(profiles))
	for _, profile := range profiles {
		if profile.Notifiable() {
			byChat[profile.ChatID] = profile
		}
	}

	var g errgroup.Group
	for chatID, text := range reports {
		profile, ok := byChat[chatID]
		if !ok {
			d.logger.Debug(ctx, "No notifiable profile for report recipient", map[string]interface{}{"chatID": chatID})
			continue
		}
		profile, text := profile, text
		g.Go(func() error {
			d.DeliverReport(ctx, profile, text)
			return nil
		})
	}
	_ = g.Wait()
}

// DeliverReport runs the edit-else-send state machine for one profile:
//
//	no prior message        -> send new, persist returned id
//	prior message, edit ok  -> done, same id
//	prior message, edit err -> send new, persist returned id
//
// The message id is persisted only on a successful new send; a failed
// persistence write does not roll back the already-sent message.
func (d *Dispatcher) DeliverReport(ctx context.Context, profile *domain.Profile, text string) DeliveryOutcome {
	if profile.LastReportMessageID != 0 {
		err := d.notifier.EditMessage(ctx, profile.ChatID, profile.LastReportMessageID, text, true)
		if err == nil {
			d.logger.Debug(ctx, "Report edited in place", map[string]interface{}{
				"userID":    profile.UserID,
				"messageID": profile.LastReportMessageID,
			})
			return ReportEdited
		}
		d.logger.Warn(ctx, "Report edit failed, sending a new message", map[string]interface{}{
			"userID":    profile.UserID,
			"messageID": profile.LastReportMessageID,
			"error":     err.Error(),
		})
	}

	messageID, err := d.notifier.SendMessage(ctx, profile.ChatID, text, true)
	if err != nil {
		d.logger.Error(ctx, err, "Failed to deliver report", map[string]interface{}{
			"userID": profile.UserID,
		})
		return ReportFailed
	}

	if err := d.profileRepo.UpdateLastReportMessageID(ctx, profile.UserID, messageID); err != nil {
		// Best-effort consistency gap: the message is out, the id write is not.
		d.logger.Error(ctx, err, "Report sent but message ID not persisted", map[string]interface{}{
			"userID":    profile.UserID,
			"messageID": messageID,
		})
	} else {
		profile.LastReportMessageID = messageID
	}
	return ReportSentNew
}
