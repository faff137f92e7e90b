package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tiledash/internal/model"
	"tiledash/internal/urlutil"
)

var ErrEmptyCollection = errors.New("cannot create a backup: the dashboard is empty")

// MalformedBackupError reports a restore document that is not a valid tile array.
type MalformedBackupError struct {
	Reason string
	Err    error
}

func (e *MalformedBackupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid backup: %s: %v", e.Reason, e.Err)
	}
	return "invalid backup: " + e.Reason
}

func (e *MalformedBackupError) Unwrap() error { return e.Err }

// EncodeBackup renders tiles as an indented JSON array.
func EncodeBackup(tiles []model.Tile) ([]byte, error) {
	if len(tiles) == 0 {
		return nil, ErrEmptyCollection
	}
	b, err := json.MarshalIndent(tiles, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// BackupFileName returns dashboard_backup_<UTC timestamp to the second>.json with
// ':' and '.' replaced by '-'.
func BackupFileName(now time.Time) string {
	return "dashboard_backup_" + now.UTC().Format("2006-01-02T15-04-05") + ".json"
}

// DecodeBackup parses and validates a backup document. Every element must carry
// a name and url; an empty array is a valid (empty) backup.
func DecodeBackup(doc []byte) ([]model.Tile, error) {
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 {
		return nil, &MalformedBackupError{Reason: "empty document"}
	}
	if !json.Valid(doc) {
		var v any
		err := json.Unmarshal(doc, &v)
		return nil, &MalformedBackupError{Reason: "not valid JSON", Err: err}
	}
	if doc[0] != '[' {
		return nil, &MalformedBackupError{Reason: "expected a JSON array of tiles"}
	}
	var tiles []model.Tile
	if err := json.Unmarshal(doc, &tiles); err != nil {
		return nil, &MalformedBackupError{Reason: "unexpected tile shape", Err: err}
	}
	for i, t := range tiles {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.URL) == "" {
			return nil, &MalformedBackupError{Reason: fmt.Sprintf("tile %d is missing name or url", i)}
		}
	}
	return NormalizeTiles(tiles), nil
}

// NormalizeTiles fills in what older documents may lack: ids (unique), the
// default group and an https scheme. It returns a new slice.
func NormalizeTiles(tiles []model.Tile) []model.Tile {
	out := make([]model.Tile, 0, len(tiles))
	seen := map[string]struct{}{}
	for _, t := range tiles {
		t.Name = strings.TrimSpace(t.Name)
		t.URL = urlutil.FixURL(strings.TrimSpace(t.URL))
		t.Group = model.NormalizeGroup(t.Group)
		t.ID = strings.TrimSpace(t.ID)
		if _, dup := seen[t.ID]; t.ID == "" || dup {
			t.ID = model.NewTileID()
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NeedsNormalize reports whether NormalizeTiles would change tiles.
func NeedsNormalize(tiles []model.Tile) bool {
	seen := map[string]struct{}{}
	for _, t := range tiles {
		if t.ID == "" || t.ID != strings.TrimSpace(t.ID) || t.Group != model.NormalizeGroup(t.Group) || t.URL != urlutil.FixURL(strings.TrimSpace(t.URL)) || t.Name != strings.TrimSpace(t.Name) {
			return true
		}
		if _, dup := seen[t.ID]; dup {
			return true
		}
		seen[t.ID] = struct{}{}
	}
	return false
}
