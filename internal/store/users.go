package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/avelar/vidvault/internal/models"
)

// UpsertUser registers a user on first contact and refreshes their
// profile and last-seen timestamp on every turn.
func (s *Store) UpsertUser(ctx context.Context, userID, username, firstName string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := time.Now()
	user := models.User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		FirstSeen: now,
		LastSeen:  now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_seen"}),
	}).Create(&user).Error
	return classify("upsert user", err)
}

// ListActiveUsers returns users seen at or after the cutoff.
func (s *Store) ListActiveUsers(ctx context.Context, since time.Time) ([]models.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("last_seen >= ?", since).
		Order("last_seen DESC").
		Find(&users).Error
	if err != nil {
		return nil, classify("list active users", err)
	}
	return users, nil
}

// CountUsers returns the total registered user count.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, classify("count users", err)
	}
	return count, nil
}

// BanUser blocks a user. Re-banning updates the reason rather than
// erroring.
func (s *Store) BanUser(ctx context.Context, userID, bannedBy, reason string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ban := models.Ban{UserID: userID, BannedBy: bannedBy, Reason: reason}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"banned_by", "reason"}),
	}).Create(&ban).Error
	return classify("ban user", err)
}

// UnbanUser lifts a ban. Unbanning a user who isn't banned is a no-op.
func (s *Store) UnbanUser(ctx context.Context, userID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Ban{}).Error
	return classify("unban user", err)
}

// IsBanned reports whether the user is currently banned.
func (s *Store) IsBanned(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Ban{}).
		Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, classify("check ban", err)
	}
	return count > 0, nil
}

// ListBans returns all active bans, newest first.
func (s *Store) ListBans(ctx context.Context) ([]models.Ban, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var bans []models.Ban
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&bans).Error
	if err != nil {
		return nil, classify("list bans", err)
	}
	return bans, nil
}
