package settings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-settings/layering"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// BackupInfo describes a stored snapshot.
type BackupInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
	// Entries counts the top-level keys of the snapshot.
	Entries int
}

type backupSnapshot struct {
	ID        string         `json:"id" yaml:"id" toml:"id" cbor:"id"`
	Name      string         `json:"name" yaml:"name" toml:"name" cbor:"name"`
	CreatedAt string         `json:"created_at" yaml:"created_at" toml:"created_at" cbor:"created_at"`
	Data      map[string]any `json:"data" yaml:"data" toml:"data" cbor:"data"`
}

// Backup snapshots the current tree under name. An existing backup with the
// same name is overwritten. Names are reduced to lowercase letters, digits,
// "-" and "_".
func (s *Store) Backup(ctx context.Context, name string) (BackupInfo, error) {
	key, err := s.backupKey(name)
	if err != nil {
		return BackupInfo{}, err
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return BackupInfo{}, err
	}
	snapshot := backupSnapshot{
		ID:        uuid.NewString(),
		Name:      strings.TrimPrefix(key, s.backupPrefix()),
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
		Data:      layering.CloneTree(s.tree),
	}
	s.mu.Unlock()

	blob, err := s.codec.Marshal(snapshot)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("%w: encode backup %q: %w", ErrPersist, snapshot.Name, err)
	}
	if err := s.backend.Write(ctx, key, blob); err != nil {
		return BackupInfo{}, fmt.Errorf("%w: backup %q: %w", ErrPersist, snapshot.Name, err)
	}

	s.emit(ctx, activity.BuildBackupCreatedEvent(activity.SettingEventInput{
		Store:      s.name,
		BackupID:   snapshot.ID,
		BackupName: snapshot.Name,
	}))
	return snapshot.info()
}

// Restore replaces the tree with the named snapshot and clears every cache
// tier.
func (s *Store) Restore(ctx context.Context, name string) error {
	snapshot, err := s.readBackup(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Replace(ctx, snapshot.Data); err != nil {
		return err
	}
	s.emit(ctx, activity.BuildSettingsRestoredEvent(activity.SettingEventInput{
		Store:      s.name,
		BackupID:   snapshot.ID,
		BackupName: snapshot.Name,
	}))
	return nil
}

// ListBackups returns every readable snapshot, newest first. Snapshots that
// cannot be decoded are skipped and reported through the returned error.
func (s *Store) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	keys, err := s.backend.List(ctx, s.backupPrefix())
	if err != nil {
		return nil, fmt.Errorf("settings: list backups: %w", err)
	}

	var result *multierror.Error
	infos := make([]BackupInfo, 0, len(keys))
	for _, key := range keys {
		snapshot, err := s.readBackup(ctx, strings.TrimPrefix(key, s.backupPrefix()))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		info, err := snapshot.info()
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, result.ErrorOrNil()
}

// DeleteBackup removes the named snapshot.
func (s *Store) DeleteBackup(ctx context.Context, name string) error {
	key, err := s.backupKey(name)
	if err != nil {
		return err
	}
	_, ok, err := s.backend.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("settings: read backup %q: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete backup %q: %w", ErrPersist, name, err)
	}
	s.emit(ctx, activity.BuildBackupDeletedEvent(activity.SettingEventInput{
		Store:      s.name,
		BackupName: strings.TrimPrefix(key, s.backupPrefix()),
	}))
	return nil
}

func (s *Store) readBackup(ctx context.Context, name string) (backupSnapshot, error) {
	key, err := s.backupKey(name)
	if err != nil {
		return backupSnapshot{}, err
	}
	blob, ok, err := s.backend.Read(ctx, key)
	if err != nil {
		return backupSnapshot{}, fmt.Errorf("settings: read backup %q: %w", name, err)
	}
	if !ok {
		return backupSnapshot{}, fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	decoded, err := s.codec.Unmarshal(blob)
	if err != nil {
		return backupSnapshot{}, fmt.Errorf("settings: decode backup %q: %w", name, err)
	}
	doc, ok := decoded.(map[string]any)
	if !ok {
		return backupSnapshot{}, fmt.Errorf("settings: decode backup %q: expected mapping, got %T", name, decoded)
	}

	snapshot := backupSnapshot{
		ID:        toString(doc["id"]),
		Name:      toString(doc["name"]),
		CreatedAt: toString(doc["created_at"]),
		Data:      map[string]any{},
	}
	if data, ok := doc["data"].(map[string]any); ok {
		snapshot.Data = data
	}
	if snapshot.Name == "" {
		snapshot.Name = strings.TrimPrefix(key, s.backupPrefix())
	}
	return snapshot, nil
}

func (s *Store) backupKey(name string) (string, error) {
	cleaned := backupName(name)
	if cleaned == "" {
		return "", fmt.Errorf("settings: invalid backup name %q", name)
	}
	return s.backupPrefix() + cleaned, nil
}

func (b backupSnapshot) info() (BackupInfo, error) {
	created, err := time.Parse(time.RFC3339Nano, b.CreatedAt)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("settings: backup %q created_at: %w", b.Name, err)
	}
	return BackupInfo{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: created,
		Entries:   len(b.Data),
	}, nil
}

func backupName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	return b.String()
}
