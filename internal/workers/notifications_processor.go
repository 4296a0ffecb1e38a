// internal/workers/notifications_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/pkg/config"
)

// NotificationProcessor emails reorder alerts for low-stock items
type NotificationProcessor struct {
	inventory ports.InventoryRepository
	config    *config.Config
	logger    *slog.Logger
}

// NewNotificationProcessor creates a new notification processor
func NewNotificationProcessor(inventory ports.InventoryRepository, config *config.Config, logger *slog.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		inventory: inventory,
		config:    config,
		logger:    logger.With(slog.String("processor", "notification")),
	}
}

// HandleLowStockAlert sends a reorder email for the item in the payload.
// The item is re-read at processing time: if stock recovered between
// enqueue and delivery the alert is dropped.
func (p *NotificationProcessor) HandleLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	item, err := p.inventory.FindByID(ctx, payload.InventoryID)
	if err != nil {
		if domain.IsNotFound(err) {
			p.logger.WarnContext(ctx, "low stock alert for missing item",
				slog.String("inventory_id", payload.InventoryID.String()))
			return nil
		}
		return fmt.Errorf("failed to load inventory item: %w", err)
	}

	if item.Status != domain.StatusLowStock && item.Status != domain.StatusOutOfStock {
		p.logger.InfoContext(ctx, "stock recovered, skipping alert",
			slog.String("sku", item.SKU),
			slog.Int("quantity", item.Quantity))
		return nil
	}

	subject := fmt.Sprintf("Reorder alert: %s (%s)", item.Name, item.SKU)
	body := fmt.Sprintf(
		"Item %s (%s) is %s.\n\nQuantity on hand: %d\nReorder point: %d\nSuggested reorder quantity: %d\nWarehouse: %s\n",
		item.Name, item.SKU, item.Status,
		item.Quantity, item.ReorderPoint, item.ReorderQuantity,
		item.Warehouse.Location,
	)

	if err := p.sendEmail(ctx, p.config.Email.AlertRecipient, subject, body); err != nil {
		return fmt.Errorf("failed to send low stock alert: %w", err)
	}

	p.logger.InfoContext(ctx, "low stock alert sent",
		slog.String("sku", item.SKU),
		slog.Int("quantity", item.Quantity))
	return nil
}

func (p *NotificationProcessor) sendEmail(ctx context.Context, to, subject, body string) error {
	// Development logs instead of mailing
	if p.config.App.Environment == "development" {
		p.logger.InfoContext(ctx, "email would be sent",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("body", body))
		return nil
	}

	email := p.config.Email
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		email.From, to, subject, body,
	))

	addr := email.SMTPHost + ":" + email.SMTPPort
	var auth smtp.Auth
	if email.SMTPUser != "" {
		auth = smtp.PlainAuth("", email.SMTPUser, email.SMTPPassword, email.SMTPHost)
	}

	return smtp.SendMail(addr, auth, email.From, []string{to}, msg)
}
