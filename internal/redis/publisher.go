package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"holdem-room/models"
)

const (
	// MatchesChannel carries every finished match summary.
	MatchesChannel = "holdem:matches"
	// recentMatches bounds the per-room match list.
	recentMatches = 20
	matchListTTL  = 24 * time.Hour
)

// HandsChannel is where a room's settled hands are published.
func HandsChannel(roomID string) string {
	return fmt.Sprintf("holdem:room:%s:hands", roomID)
}

// MatchesKey is the per-room list of recent match summaries, newest first.
func MatchesKey(roomID string) string {
	return fmt.Sprintf("holdem:room:%s:matches", roomID)
}

type handMessage struct {
	RoomID string            `json:"roomId"`
	Hand   models.HandRecord `json:"hand"`
}

// Publisher fans hand and match results out over redis. It satisfies
// engine.MatchRecorder.
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) RecordHand(ctx context.Context, roomID string, hand models.HandRecord) error {
	payload, err := encodeHand(roomID, hand)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, HandsChannel(roomID), payload).Err(); err != nil {
		return fmt.Errorf("publish hand: %w", err)
	}
	return nil
}

func (p *Publisher) RecordMatch(ctx context.Context, summary models.MatchSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := MatchesKey(summary.RoomID)
	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, MatchesChannel, payload)
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, recentMatches-1)
	pipe.Expire(ctx, key, matchListTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish match: %w", err)
	}

	p.client.log.Debug().Str("room", summary.RoomID).Str("reason", summary.Reason).Msg("match published")
	return nil
}

// RecentMatches reads back the cached summaries for a room.
func (p *Publisher) RecentMatches(ctx context.Context, roomID string, limit int) ([]models.MatchSummary, error) {
	if limit <= 0 || limit > recentMatches {
		limit = recentMatches
	}
	raw, err := p.client.LRange(ctx, MatchesKey(roomID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	return decodeMatches(raw)
}

func encodeHand(roomID string, hand models.HandRecord) ([]byte, error) {
	return json.Marshal(handMessage{RoomID: roomID, Hand: hand})
}

func decodeMatches(raw []string) ([]models.MatchSummary, error) {
	out := make([]models.MatchSummary, 0, len(raw))
	for _, item := range raw {
		var summary models.MatchSummary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			return nil, fmt.Errorf("decode cached match: %w", err)
		}
		out = append(out, summary)
	}
	return out, nil
}
