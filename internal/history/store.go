package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"holdem-room/internal/db"
	"holdem-room/models"
)

// MatchRecord is one finished match.
type MatchRecord struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID      string    `gorm:"column:room_id;type:varchar(64);not null;index:idx_match_room" json:"room_id"`
	Reason      string    `gorm:"column:reason;type:varchar(128)" json:"reason"`
	HandsPlayed int       `gorm:"column:hands_played;not null" json:"hands_played"`
	TotalHands  int       `gorm:"column:total_hands;not null" json:"total_hands"`
	Standings   string    `gorm:"column:standings;type:text" json:"standings"`
	History     string    `gorm:"column:history;type:text" json:"history"`
	EndedAt     time.Time `gorm:"column:ended_at;index:idx_match_room" json:"ended_at"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MatchRecord) TableName() string {
	return "match_records"
}

// HandRecord is one settled hand.
type HandRecord struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID      string    `gorm:"column:room_id;type:varchar(64);not null;index:idx_hand_room" json:"room_id"`
	HandNumber  int       `gorm:"column:hand_number;not null;index:idx_hand_room" json:"hand_number"`
	Winners     string    `gorm:"column:winners;type:text" json:"winners"`
	Description string    `gorm:"column:description;type:varchar(255)" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (HandRecord) TableName() string {
	return "hand_records"
}

// Store archives hands and matches. It satisfies engine.MatchRecorder.
type Store struct {
	db  *db.DB
	log zerolog.Logger
}

// NewStore migrates the archive tables and returns a ready store.
func NewStore(database *db.DB, logger zerolog.Logger) (*Store, error) {
	if err := database.AutoMigrate(&MatchRecord{}, &HandRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history tables: %w", err)
	}
	return &Store{db: database, log: logger}, nil
}

func (s *Store) RecordHand(ctx context.Context, roomID string, hand models.HandRecord) error {
	winners, err := json.Marshal(hand.Winners)
	if err != nil {
		return err
	}
	row := HandRecord{
		RoomID:      roomID,
		HandNumber:  hand.HandNum,
		Winners:     string(winners),
		Description: hand.Description,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Error().Err(err).Str("room", roomID).Int("hand", hand.HandNum).Msg("failed to save hand")
		return err
	}
	s.log.Debug().Str("room", roomID).Int("hand", hand.HandNum).Msg("hand archived")
	return nil
}

func (s *Store) RecordMatch(ctx context.Context, summary models.MatchSummary) error {
	standings, err := json.Marshal(summary.Standings)
	if err != nil {
		return err
	}
	hands, err := json.Marshal(summary.History)
	if err != nil {
		return err
	}
	row := MatchRecord{
		RoomID:      summary.RoomID,
		Reason:      summary.Reason,
		HandsPlayed: summary.HandsPlayed,
		TotalHands:  summary.TotalHands,
		Standings:   string(standings),
		History:     string(hands),
		EndedAt:     summary.EndedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Error().Err(err).Str("room", summary.RoomID).Msg("failed to save match")
		return err
	}
	s.log.Info().Str("room", summary.RoomID).Int64("id", row.ID).Msg("match archived")
	return nil
}

// RecentMatches returns up to limit archived matches for a room, newest
// first, each with the hand log it was recorded with.
func (s *Store) RecentMatches(ctx context.Context, roomID string, limit int) ([]models.MatchSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var rows []MatchRecord
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("ended_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.MatchSummary, 0, len(rows))
	for _, row := range rows {
		summary := models.MatchSummary{
			RoomID:      row.RoomID,
			Reason:      row.Reason,
			HandsPlayed: row.HandsPlayed,
			TotalHands:  row.TotalHands,
			EndedAt:     row.EndedAt,
		}
		if err := json.Unmarshal([]byte(row.Standings), &summary.Standings); err != nil {
			s.log.Warn().Err(err).Int64("id", row.ID).Msg("corrupt standings in archive")
		}
		if row.History != "" {
			if err := json.Unmarshal([]byte(row.History), &summary.History); err != nil {
				s.log.Warn().Err(err).Int64("id", row.ID).Msg("corrupt hand log in archive")
			}
		}
		if summary.History == nil {
			summary.History = []models.HandRecord{}
		}
		out = append(out, summary)
	}
	return out, nil
}

// Hands returns every hand archived for a room in play order, across all
// of its matches. It is written as each hand settles, so it also covers a
// match that is still running.
func (s *Store) Hands(ctx context.Context, roomID string) ([]models.HandRecord, error) {
	var rows []HandRecord
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.HandRecord, 0, len(rows))
	for _, row := range rows {
		hand := models.HandRecord{HandNum: row.HandNumber, Description: row.Description}
		if err := json.Unmarshal([]byte(row.Winners), &hand.Winners); err != nil {
			s.log.Warn().Err(err).Int64("id", row.ID).Msg("corrupt winners in archive")
		}
		out = append(out, hand)
	}
	return out, nil
}
