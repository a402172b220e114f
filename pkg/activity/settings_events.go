package activity

import (
	"strings"
	"time"
)

// Object types carried by settings events.
const (
	ObjectSettings = "settings"
	ObjectBackup   = "settings.backup"
)

// Verbs emitted by the settings store.
const (
	VerbCreated       = "settings.created"
	VerbUpdated       = "settings.updated"
	VerbDeleted       = "settings.deleted"
	VerbReset         = "settings.reset"
	VerbImported      = "settings.imported"
	VerbRestored      = "settings.restored"
	VerbBackupCreated = "settings.backup.created"
	VerbBackupDeleted = "settings.backup.deleted"
)

// SettingEventInput describes the fields shared by settings events.
type SettingEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Recipients []string
	Metadata   map[string]any

	Store    string
	Path     string
	Group    string
	OldValue any
	NewValue any
	Created  bool

	BackupID   string
	BackupName string
	Merge      bool

	OccurredAt time.Time
}

// BuildSettingUpdatedEvent reports a write. Writes that created the key use
// the created verb.
func BuildSettingUpdatedEvent(input SettingEventInput) Event {
	verb := VerbUpdated
	if input.Created {
		verb = VerbCreated
	}
	return buildSettingEvent(verb, ObjectSettings, input)
}

// BuildSettingDeletedEvent reports a removal.
func BuildSettingDeletedEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbDeleted, ObjectSettings, input)
}

// BuildSettingResetEvent reports a reset of one path, or of the whole store
// when Path is empty.
func BuildSettingResetEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbReset, ObjectSettings, input)
}

// BuildSettingsImportedEvent reports an accepted import document.
func BuildSettingsImportedEvent(input SettingEventInput) Event {
	meta := ensureMetadata(cloneMap(input.Metadata))
	meta["merge"] = input.Merge
	input.Metadata = meta
	return buildSettingEvent(VerbImported, ObjectSettings, input)
}

// BuildSettingsRestoredEvent reports a restore from a backup snapshot.
func BuildSettingsRestoredEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbRestored, ObjectBackup, input)
}

// BuildBackupCreatedEvent reports a new backup snapshot.
func BuildBackupCreatedEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbBackupCreated, ObjectBackup, input)
}

// BuildBackupDeletedEvent reports a deleted backup snapshot.
func BuildBackupDeletedEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbBackupDeleted, ObjectBackup, input)
}

func buildSettingEvent(verb, objectType string, input SettingEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		metadata = ensureMetadata(metadata)
		metadata[key] = value
	}
	if input.Store != "" {
		set("store", input.Store)
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.Group != "" {
		set("group", input.Group)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if input.BackupName != "" {
		set("backup_name", input.BackupName)
	}

	objectID := firstNonEmpty(input.BackupID, input.Path, input.Group, input.Store, objectType)
	if objectType == ObjectBackup {
		objectID = firstNonEmpty(input.BackupName, input.BackupID, input.Store, objectType)
	}

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Recipients: recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
