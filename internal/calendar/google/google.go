// Package google implements the calendar port against the Google Calendar API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gcal "google.golang.org/api/calendar/v3"
	goption "google.golang.org/api/option"

	"finwise/internal/calendar"
	"finwise/internal/core"
)

type Client struct {
	svc        *gcal.Service
	calendarID string
}

var _ calendar.EventWriter = (*Client)(nil)

// NewFromEnv creates a Calendar client from environment variables.
// Required: GOOGLE_CALENDAR_ID (use "primary" for the account's own calendar).
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	calendarID := strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ID"))
	if calendarID == "" {
		return nil, errors.New("missing GOOGLE_CALENDAR_ID")
	}

	svc, err := newCalendarService(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	return &Client{svc: svc, calendarID: calendarID}, nil
}

func newCalendarService(ctx context.Context) (*gcal.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gcal.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gcal.CalendarEventsScope))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return service, nil
}

// AddDueDateEvent inserts an all-day event on the debt's due date. The summary
// names the counterparty and direction so the calendar entry is readable on
// its own.
func (c *Client) AddDueDateEvent(ctx context.Context, d core.Debt) error {
	day := d.DueDate.Format("2006-01-02")

	var summary string
	if d.Direction == core.OwedByMe {
		summary = fmt.Sprintf("Pay %s %s", d.PersonName, core.FormatUSD(d.Amount))
	} else {
		summary = fmt.Sprintf("Collect %s from %s", core.FormatUSD(d.Amount), d.PersonName)
	}

	event := &gcal.Event{
		Summary:     summary,
		Description: d.Description,
		Start:       &gcal.EventDateTime{Date: day},
		End:         &gcal.EventDateTime{Date: day},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}

	slog.InfoContext(ctx, "Added due date to calendar",
		"debt_id", d.ID, "event_id", created.Id, "date", day)
	return nil
}
