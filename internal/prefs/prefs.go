// Package prefs persists the console's client-side state: the session token,
// the cached operator profile and UI preferences. Rows live under a fixed
// namespace so one database can serve several consoles.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/models"
)

// Namespace scopes every row written by the console.
const Namespace = "hoardings"

// Persisted keys.
const (
	KeyAuthToken        = "auth_token"
	KeyUser             = "user"
	KeyTheme            = "theme"
	KeySidebarCollapsed = "sidebar_collapsed"
	KeyPageSize         = "page_size"
)

const (
	DefaultTheme    = "system"
	DefaultPageSize = 10
)

var (
	Themes    = []string{"light", "dark", "system"}
	PageSizes = []int{10, 25, 50, 100}
)

// Preferences are the UI settings that survive logout.
type Preferences struct {
	Theme            string `json:"theme"`
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
	PageSize         int    `json:"pageSize"`
}

// Patch carries a partial preference update; nil fields are left alone.
type Patch struct {
	Theme            *string `json:"theme,omitempty"`
	SidebarCollapsed *bool   `json:"sidebarCollapsed,omitempty"`
	PageSize         *int    `json:"pageSize,omitempty"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the raw value of key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var p models.Preference
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", Namespace, key).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get pref %s: %w", key, err)
	}
	return p.Value, true, nil
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	p := models.Preference{Namespace: Namespace, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key IN ?", Namespace, keys).
		Delete(&models.Preference{}).Error
	if err != nil {
		return fmt.Errorf("delete prefs: %w", err)
	}
	return nil
}

// Token returns the stored bearer token, "" when signed out.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, KeyAuthToken)
	return v, err
}

// User returns the cached operator profile, nil when absent.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	v, ok, err := s.Get(ctx, KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &u, nil
}

// SaveSession stores the token and profile together.
func (s *Store) SaveSession(ctx context.Context, token string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := &Store{db: tx}
		if err := st.Set(ctx, KeyAuthToken, token); err != nil {
			return err
		}
		return st.Set(ctx, KeyUser, string(data))
	})
}

// ClearSession drops the token and profile but keeps UI preferences.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, KeyAuthToken, KeyUser)
}

// Load returns the UI preferences with defaults filled in.
func (s *Store) Load(ctx context.Context) (Preferences, error) {
	p := Preferences{Theme: DefaultTheme, PageSize: DefaultPageSize}
	var rows []models.Preference
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key IN ?", Namespace, []string{KeyTheme, KeySidebarCollapsed, KeyPageSize}).
		Find(&rows).Error
	if err != nil {
		return p, fmt.Errorf("load prefs: %w", err)
	}
	for _, r := range rows {
		switch r.Key {
		case KeyTheme:
			if slices.Contains(Themes, r.Value) {
				p.Theme = r.Value
			}
		case KeySidebarCollapsed:
			p.SidebarCollapsed, _ = strconv.ParseBool(r.Value)
		case KeyPageSize:
			if n, err := strconv.Atoi(r.Value); err == nil && slices.Contains(PageSizes, n) {
				p.PageSize = n
			}
		}
	}
	return p, nil
}

// Update validates and writes the non-nil fields of patch, then returns the
// resulting preferences.
func (s *Store) Update(ctx context.Context, patch Patch) (Preferences, error) {
	fields := map[string]string{}
	if patch.Theme != nil && !slices.Contains(Themes, *patch.Theme) {
		fields["theme"] = "invalid_choice"
	}
	if patch.PageSize != nil && !slices.Contains(PageSizes, *patch.PageSize) {
		fields["pageSize"] = "invalid_choice"
	}
	if len(fields) > 0 {
		return Preferences{}, apperr.Validation(fields)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := &Store{db: tx}
		if patch.Theme != nil {
			if err := st.Set(ctx, KeyTheme, *patch.Theme); err != nil {
				return err
			}
		}
		if patch.SidebarCollapsed != nil {
			if err := st.Set(ctx, KeySidebarCollapsed, strconv.FormatBool(*patch.SidebarCollapsed)); err != nil {
				return err
			}
		}
		if patch.PageSize != nil {
			if err := st.Set(ctx, KeyPageSize, strconv.Itoa(*patch.PageSize)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Preferences{}, err
	}
	return s.Load(ctx)
}

// PageSize returns the persisted default page size.
func (s *Store) PageSize(ctx context.Context) int {
	p, err := s.Load(ctx)
	if err != nil {
		return DefaultPageSize
	}
	return p.PageSize
}

// SetPageSize persists a new default page size.
func (s *Store) SetPageSize(ctx context.Context, n int) error {
	_, err := s.Update(ctx, Patch{PageSize: &n})
	return err
}
