package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/kishankumar2607/TechNova/internal/broker"
	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/util"
)

// NotificationWorker consumes order events and emits the customer-facing
// confirmation (currently a structured log line and a metric; the mail
// hook goes here when one exists).
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnUserRegistered(w.handleUserRegistered)
	w.eventHandler = eventHandler

	return w
}

func (w *NotificationWorker) handleUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	w.logger.Info("Welcome notification",
		zap.Int64("user_id", event.UserID),
		zap.String("email", event.Email))

	util.NotificationsTotal.WithLabelValues("welcome", "sent").Inc()
	return nil
}

func (w *NotificationWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	paymentMethod := "cash on delivery"
	if event.PaymentID == models.PaymentBank {
		paymentMethod = "bank transfer"
	}

	w.logger.Info("Order confirmation",
		zap.Int64("order_id", event.OrderID),
		zap.Int64("customer_id", event.CustomerID),
		zap.String("email", event.EmailAddress),
		zap.String("payment_method", paymentMethod),
		zap.String("total", event.TotalAmount.StringFixed(2)),
		zap.Int("line_count", len(event.Items)))

	util.NotificationsTotal.WithLabelValues("order_confirmation", "sent").Inc()
	return nil
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
