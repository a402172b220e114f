package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsSettingEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildSettingUpdatedEvent(activity.SettingEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "settings",
		Recipients: []string{"ops@example.com"},
		Store:      "site",
		Path:       "general.site_name",
		OldValue:   "Old",
		NewValue:   "New",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user id, got %s", record.UserID)
	}
	if record.Verb != activity.VerbUpdated || record.ObjectType != activity.ObjectSettings || record.ObjectID != "general.site_name" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["store"] != "site" || record.Data["new_value"] != "New" {
		t.Fatalf("expected metadata passthrough got %v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifyKeepsNonUUIDActor(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Channel: "audit"}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbDeleted,
		ActorID:    "cli",
		ObjectType: activity.ObjectSettings,
		ObjectID:   "mail.host",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data["actor_ref"] != "cli" {
		t.Fatalf("expected actor_ref, got %v", record.Data)
	}
	if record.Channel != "audit" {
		t.Fatalf("expected channel override, got %q", record.Channel)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsIncompleteEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{ObjectType: "settings"})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for incomplete event, got %d", len(sink.records))
	}
}
