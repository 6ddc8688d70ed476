// Package reputation accumulates per-user reputation from discrete community
// events and promotes users through the rank catalog when their score
// qualifies them for a higher level.
package reputation

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/models"
)

// EventKind identifies a reputation-earning event.
type EventKind string

const (
	// EventCommentCreated is emitted when a user posts a comment.
	EventCommentCreated EventKind = "comment_created"
	// EventLikeReceived is emitted when a user's comment receives a like.
	EventLikeReceived EventKind = "like_received"
)

// Reputation weights are policy constants, never user input.
const (
	commentCreatedXP = 2
	likeReceivedXP   = 1
)

var (
	// ErrUserNotFound reports that the event targeted a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnknownEvent reports an event kind the engine does not score.
	ErrUnknownEvent = errors.New("unknown reputation event")
	// ErrTransient wraps lock contention errors; the caller may retry.
	ErrTransient = errors.New("transient database contention")
)

// RankResult describes the outcome of one promotion evaluation. Evaluation
// failures are folded into the result (Succeeded=false) instead of being
// returned as errors, so a ranking bug can never sink the primary event.
type RankResult struct {
	Succeeded   bool   `json:"success"`
	Upgraded    bool   `json:"upgraded"`
	OldRank     string `json:"old_rank,omitempty"`
	NewRank     string `json:"new_rank,omitempty"`
	NewRankIcon string `json:"new_rank_icon,omitempty"`
	CurrentRank string `json:"current_rank,omitempty"`
	CurrentXP   int    `json:"current_xp"`
	Message     string `json:"message"`
}

// EventResult is returned by RecordEvent with the post-update counters and
// the rank evaluation outcome.
type EventResult struct {
	Kind               EventKind  `json:"action"`
	NewScore           int        `json:"new_reputation"`
	TotalComments      int        `json:"total_comments"`
	TotalLikesReceived int        `json:"total_likes_received"`
	RankCheck          RankResult `json:"rank_check"`
}

const noRankName = "No rank"

// RecordEvent increments the user's counters and reputation score for the
// given event and immediately evaluates a rank promotion, all inside one
// serializable transaction so concurrent events for the same user cannot
// lose score updates or promote against a stale rank.
//
// NotFound and persistence failures on the counter update abort the whole
// operation; failures inside rank evaluation are reported through
// EventResult.RankCheck and do not roll back the counters.
func RecordEvent(db *gorm.DB, userID uint, kind EventKind) (*EventResult, error) {
	switch kind {
	case EventCommentCreated, EventLikeReceived:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}

	var res EventResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		switch kind {
		case EventCommentCreated:
			user.TotalComments++
			user.ReputationScore += commentCreatedXP
		case EventLikeReceived:
			user.TotalLikesReceived++
			user.ReputationScore += likeReceivedXP
		}

		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"total_comments":       user.TotalComments,
			"total_likes_received": user.TotalLikesReceived,
			"reputation_score":     user.ReputationScore,
		}).Error; err != nil {
			return err
		}

		res = EventResult{
			Kind:               kind,
			NewScore:           user.ReputationScore,
			TotalComments:      user.TotalComments,
			TotalLikesReceived: user.TotalLikesReceived,
		}
		res.RankCheck = evaluate(tx, &user)
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		if isLockContention(err) {
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return nil, err
	}
	return &res, nil
}

// EvaluatePromotion re-runs the promotion check for a user without recording
// any event. It never returns an error: lookup or persistence failures are
// reported through the result so callers can always proceed.
func EvaluatePromotion(db *gorm.DB, userID uint) RankResult {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RankResult{Succeeded: false, Message: "User not found"}
		}
		return evaluationFailed(err)
	}
	return evaluate(db, &user)
}

// evaluate scans active ranks from highest to lowest level and assigns the
// first one the user qualifies for, provided it sits strictly above the
// current rank. Ranks with no "xp" requirement count as threshold 0. Only a
// single promotion is ever applied per evaluation.
func evaluate(tx *gorm.DB, user *models.User) RankResult {
	var current *models.Rank
	if user.RankID != nil {
		var r models.Rank
		if err := tx.First(&r, *user.RankID).Error; err == nil {
			current = &r
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return evaluationFailed(err)
		}
	}

	var candidates []models.Rank
	if err := tx.Where("is_active = ?", true).Order("level DESC").Find(&candidates).Error; err != nil {
		return evaluationFailed(err)
	}

	score := user.ReputationScore
	for i := range candidates {
		cand := candidates[i]
		if score < cand.XPRequirement() {
			continue
		}
		if current != nil && cand.Level <= current.Level {
			// Candidates are in descending level order: the user already
			// holds a qualifying rank at or above everything that remains.
			break
		}

		oldName := noRankName
		if current != nil {
			oldName = current.DisplayName
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("rank_id", cand.ID).Error; err != nil {
			return evaluationFailed(err)
		}
		user.RankID = &cand.ID

		return RankResult{
			Succeeded:   true,
			Upgraded:    true,
			OldRank:     oldName,
			NewRank:     cand.DisplayName,
			NewRankIcon: cand.Icon,
			CurrentXP:   score,
			Message:     fmt.Sprintf("🎉 Upgraded from %s to %s!", oldName, cand.DisplayName),
		}
	}

	currentName := noRankName
	if current != nil {
		currentName = current.DisplayName
	}
	return RankResult{
		Succeeded:   true,
		Upgraded:    false,
		CurrentRank: currentName,
		CurrentXP:   score,
		Message:     "No upgrade yet - keep earning XP!",
	}
}

func evaluationFailed(err error) RankResult {
	return RankResult{Succeeded: false, Message: fmt.Sprintf("Error checking rank: %v", err)}
}

// isLockContention recognizes MySQL deadlock (1213) and lock wait timeout
// (1205) so callers can distinguish retryable contention from real failures.
func isLockContention(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	return false
}
