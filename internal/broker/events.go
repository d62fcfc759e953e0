package broker

import (
	"context"
	"fmt"

	"booking-service/internal/models"
)

// EventPublisher handles publishing booking lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBookingCreated publishes BookingCreated event
func (ep *EventPublisher) PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.BookingID), event)
}

// PublishBookingUpdated publishes BookingUpdated event
func (ep *EventPublisher) PublishBookingUpdated(ctx context.Context, event *models.BookingUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.BookingID), event)
}

// PublishBookingCancelled publishes BookingCancelled event
func (ep *EventPublisher) PublishBookingCancelled(ctx context.Context, event *models.BookingCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.BookingID), event)
}

// PublishBookingCompleted publishes BookingCompleted event
func (ep *EventPublisher) PublishBookingCompleted(ctx context.Context, event *models.BookingCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.BookingID), event)
}

func eventKey(bookingID string) string {
	return fmt.Sprintf("booking-%s", bookingID)
}
