// Package docstore is the port to the remote, multi-writer document store
// that holds one profile document per user plus a food-log sub-collection.
// Subscriptions push full current snapshots on every change: the profile
// document delivers partial fields (absent fields mean "unchanged"), the
// food-log collection always delivers its complete contents.
package docstore

import (
	"context"
	"errors"

	"macrolog/internal/models"
)

var (
	// ErrNotFound reports an update or delete against a document id that
	// does not exist.
	ErrNotFound = errors.New("docstore: not found")
	// ErrUnavailable reports a connectivity or permission failure. Callers
	// keep their last known state; the store never clears it for them.
	ErrUnavailable = errors.New("docstore: unavailable")
)

// ProfileDoc is the persisted profile document. Nil fields are absent; a
// merge write only touches present fields. Goals and WeightHistory, when
// present, replace their sub-object wholesale (the store offers no
// field-level merge inside nested objects).
type ProfileDoc struct {
	Email            *string               `json:"email,omitempty"`
	DisplayName      *string               `json:"displayName,omitempty"`
	Goals            *models.Goals         `json:"goals,omitempty"`
	ProfilePhoto     *string               `json:"profilePhoto,omitempty"`
	WeightHistory    []models.WeightRecord `json:"weightHistory,omitempty"`
	CompletedProfile *bool                 `json:"completedProfile,omitempty"`
	Age              *int                  `json:"age,omitempty"`
	Gender           *string               `json:"gender,omitempty"`
	CreatedAt        *string               `json:"createdAt,omitempty"`
}

// ProfileFunc receives profile document snapshots.
type ProfileFunc func(ProfileDoc)

// FoodLogFunc receives complete food-log collection snapshots.
type FoodLogFunc func([]models.FoodLogEntry)

// ErrorFunc receives subscription failures, separate from data callbacks.
type ErrorFunc func(error)

// CancelFunc stops a subscription. After it returns no further callback for
// that subscription is invoked.
type CancelFunc func()

// Store is the remote document store contract. All writes acknowledge before
// the resulting snapshot is fanned out to subscribers; snapshot order is
// monotonic per subscription but unordered across subscriptions.
type Store interface {
	// UpsertProfile merges the present fields of doc into the user's
	// profile document, creating it if needed.
	UpsertProfile(ctx context.Context, userID int, doc ProfileDoc) error
	// SubscribeProfile delivers the current profile document immediately
	// and again after every change.
	SubscribeProfile(ctx context.Context, userID int, onSnapshot ProfileFunc, onError ErrorFunc) (CancelFunc, error)
	// SubscribeFoodLog delivers the full food-log collection immediately
	// and again after every change.
	SubscribeFoodLog(ctx context.Context, userID int, onSnapshot FoodLogFunc, onError ErrorFunc) (CancelFunc, error)
	// AddFoodLogEntry stores a new entry, ignoring any id on it, and
	// returns the assigned id.
	AddFoodLogEntry(ctx context.Context, userID int, entry models.FoodLogEntry) (string, error)
	// UpdateFoodLogEntry rewrites the non-identity fields of an existing
	// entry. The log date is immutable and not rewritten.
	UpdateFoodLogEntry(ctx context.Context, userID int, id string, entry models.FoodLogEntry) error
	// DeleteFoodLogEntry removes an entry by id.
	DeleteFoodLogEntry(ctx context.Context, userID int, id string) error
}

// MergeProfile applies the present fields of src onto dst, leaving absent
// fields untouched.
func MergeProfile(dst *ProfileDoc, src ProfileDoc) {
	if src.Email != nil {
		dst.Email = src.Email
	}
	if src.DisplayName != nil {
		dst.DisplayName = src.DisplayName
	}
	if src.Goals != nil {
		dst.Goals = src.Goals
	}
	if src.ProfilePhoto != nil {
		dst.ProfilePhoto = src.ProfilePhoto
	}
	if src.WeightHistory != nil {
		dst.WeightHistory = src.WeightHistory
	}
	if src.CompletedProfile != nil {
		dst.CompletedProfile = src.CompletedProfile
	}
	if src.Age != nil {
		dst.Age = src.Age
	}
	if src.Gender != nil {
		dst.Gender = src.Gender
	}
	if src.CreatedAt != nil {
		dst.CreatedAt = src.CreatedAt
	}
}
