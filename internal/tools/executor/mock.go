package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DataSource supplies records for the secretary tools.
type DataSource[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
}

// CalendarEvent is one calendar entry.
type CalendarEvent struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
}

// EmailMessage is one inbox entry.
type EmailMessage struct {
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Received string `json:"received"`
	Unread   bool   `json:"unread"`
}

// PlaceholderCalendar returns a fixed set of events.
type PlaceholderCalendar struct{}

func (PlaceholderCalendar) Fetch(ctx context.Context) ([]CalendarEvent, error) {
	return []CalendarEvent{
		{Title: "Team standup", Start: "09:00", End: "09:15", Location: "Conference room"},
		{Title: "Project review", Start: "14:00", End: "15:00"},
		{Title: "Dentist appointment", Start: "17:30", End: "18:00", Location: "Downtown clinic"},
	}, nil
}

// PlaceholderEmail returns a fixed set of messages.
type PlaceholderEmail struct{}

func (PlaceholderEmail) Fetch(ctx context.Context) ([]EmailMessage, error) {
	return []EmailMessage{
		{From: "manager@example.com", Subject: "Quarterly report due Friday", Received: "08:12", Unread: true},
		{From: "it-support@example.com", Subject: "Scheduled maintenance tonight", Received: "10:47", Unread: true},
		{From: "newsletter@example.com", Subject: "Weekly digest", Received: "Yesterday", Unread: false},
	}, nil
}

// Calendar lists upcoming events.
type Calendar struct {
	Source DataSource[CalendarEvent]
}

func (t *Calendar) Name() string        { return "calendar" }
func (t *Calendar) Description() string { return "List today's calendar events" }

func (t *Calendar) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	source := t.Source
	if source == nil {
		source = PlaceholderCalendar{}
	}
	return listRecords(ctx, source, "events")
}

// Email lists recent inbox messages.
type Email struct {
	Source DataSource[EmailMessage]
}

func (t *Email) Name() string        { return "email" }
func (t *Email) Description() string { return "List recent email messages" }

func (t *Email) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	source := t.Source
	if source == nil {
		source = PlaceholderEmail{}
	}
	return listRecords(ctx, source, "messages")
}

func listRecords[T any](ctx context.Context, source DataSource[T], key string) (*Result, error) {
	start := time.Now()

	records, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if records == nil {
		records = []T{}
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	return TimedResult(NewResult(string(out), map[string]any{
		key:     records,
		"count": len(records),
	}), start), nil
}
