package reputation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kgr33n/kblog/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared in-memory sqlite database exists per connection.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.Rank{}, &models.User{},
		&models.Post{}, &models.Tag{}, &models.Comment{},
		&models.CommentLike{}, &models.Vote{}, &models.PageView{},
	))
	require.NoError(t, models.SeedCatalogs(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, score int) *models.User {
	t.Helper()
	user := &models.User{
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    "x",
		ReputationScore: score,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func rankByName(t *testing.T, db *gorm.DB, name string) models.Rank {
	t.Helper()
	var r models.Rank
	require.NoError(t, db.Where("name = ?", name).First(&r).Error)
	return r
}

func TestRecordEventCommentAddsTwoPoints(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice", 0)

	res, err := RecordEvent(db, user.ID, EventCommentCreated)
	require.NoError(t, err)

	assert.Equal(t, 2, res.NewScore)
	assert.Equal(t, 1, res.TotalComments)
	assert.Equal(t, 0, res.TotalLikesReceived)
	assert.True(t, res.RankCheck.Succeeded)
}

func TestRecordEventLikeAddsOnePoint(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "bob", 0)

	res, err := RecordEvent(db, user.ID, EventLikeReceived)
	require.NoError(t, err)

	assert.Equal(t, 1, res.NewScore)
	assert.Equal(t, 1, res.TotalLikesReceived)
	assert.Equal(t, 0, res.TotalComments)
}

func TestRecordEventUnknownKind(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "carol", 0)

	_, err := RecordEvent(db, user.ID, EventKind("post_shared"))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	// The failed event must not leave partial counter updates behind.
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, 0, reloaded.ReputationScore)
}

func TestRecordEventUserNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := RecordEvent(db, 9999, EventCommentCreated)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCommentCrossesRegularThreshold(t *testing.T) {
	db := newTestDB(t)
	// 48 + 2 = 50, exactly the REGULAR requirement.
	user := createUser(t, db, "dave", 48)

	res, err := RecordEvent(db, user.ID, EventCommentCreated)
	require.NoError(t, err)

	assert.Equal(t, 50, res.NewScore)
	assert.True(t, res.RankCheck.Upgraded)
	assert.Equal(t, "No rank", res.RankCheck.OldRank)
	assert.Equal(t, "Regular", res.RankCheck.NewRank)
	assert.Equal(t, "⭐", res.RankCheck.NewRankIcon)
	assert.Contains(t, res.RankCheck.Message, "Upgraded from No rank to Regular!")

	var reloaded models.User
	require.NoError(t, db.Preload("Rank").First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.Rank)
	assert.Equal(t, "REGULAR", reloaded.Rank.Name)
}

func TestHighestSatisfiedRankWins(t *testing.T) {
	db := newTestDB(t)
	// 250 already clears both REGULAR (50) and TRUSTED (200); the engine
	// must jump straight to TRUSTED without passing through REGULAR.
	user := createUser(t, db, "erin", 249)

	res, err := RecordEvent(db, user.ID, EventLikeReceived)
	require.NoError(t, err)

	assert.True(t, res.RankCheck.Upgraded)
	assert.Equal(t, "Trusted", res.RankCheck.NewRank)
}

func TestNoUpgradeBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "frank", 10)
	regular := rankByName(t, db, "REGULAR")
	require.NoError(t, db.Model(user).Update("rank_id", regular.ID).Error)

	res := EvaluatePromotion(db, user.ID)

	assert.True(t, res.Succeeded)
	assert.False(t, res.Upgraded)
	assert.Equal(t, "Regular", res.CurrentRank)
	assert.Equal(t, "No upgrade yet - keep earning XP!", res.Message)
}

func TestPromotionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "grace", 60)

	first := EvaluatePromotion(db, user.ID)
	require.True(t, first.Upgraded)

	second := EvaluatePromotion(db, user.ID)
	assert.True(t, second.Succeeded)
	assert.False(t, second.Upgraded)
	assert.Equal(t, "Regular", second.CurrentRank)
}

func TestRankNeverMovesDown(t *testing.T) {
	db := newTestDB(t)
	// Holding TRUSTED with a score below its threshold must not demote.
	user := createUser(t, db, "heidi", 60)
	trusted := rankByName(t, db, "TRUSTED")
	require.NoError(t, db.Model(user).Update("rank_id", trusted.ID).Error)

	res := EvaluatePromotion(db, user.ID)

	assert.True(t, res.Succeeded)
	assert.False(t, res.Upgraded)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.RankID)
	assert.Equal(t, trusted.ID, *reloaded.RankID)
}

func TestInactiveRanksAreSkipped(t *testing.T) {
	db := newTestDB(t)
	// VIP (level 10, inactive) would otherwise win for any score since it
	// has no xp requirement.
	user := createUser(t, db, "ivan", 5000)

	res := EvaluatePromotion(db, user.ID)

	require.True(t, res.Upgraded)
	assert.Equal(t, "Legend", res.NewRank)
}

func TestNoActiveRanksIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Model(&models.Rank{}).Where("1 = 1").Update("is_active", false).Error)
	user := createUser(t, db, "judy", 100)

	res := EvaluatePromotion(db, user.ID)

	assert.True(t, res.Succeeded)
	assert.False(t, res.Upgraded)
	assert.Equal(t, "No rank", res.CurrentRank)
}

func TestMissingXPRequirementCountsAsZero(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "karl", 0)

	res := EvaluatePromotion(db, user.ID)

	// NEWBIE has an empty requirements map, so a zero-score user gets it.
	require.True(t, res.Upgraded)
	assert.Equal(t, "Newbie", res.NewRank)
}

func TestSeededThresholdsSurviveReload(t *testing.T) {
	db := newTestDB(t)

	// Requirements deserialize as json.Number after a database round trip;
	// the thresholds must still read back as the seeded integers.
	for name, want := range map[string]int{
		"NEWBIE": 0, "REGULAR": 50, "TRUSTED": 200,
		"STAR": 1000, "LEGEND": 5000,
	} {
		r := rankByName(t, db, name)
		assert.Equal(t, want, r.XPRequirement(), name)
	}
}

func TestVIPSeedsInactive(t *testing.T) {
	db := newTestDB(t)

	vip := rankByName(t, db, "VIP")
	assert.False(t, vip.IsActive)

	// With VIP inactive, a fresh user lands on the entry rank instead of
	// jumping to level 10.
	user := createUser(t, db, "lena", 0)
	res := EvaluatePromotion(db, user.ID)
	require.True(t, res.Upgraded)
	assert.Equal(t, "Newbie", res.NewRank)
}

func TestXPRequirementCoercion(t *testing.T) {
	r := models.Rank{Requirements: datatypes.JSONMap{"xp": json.Number("150")}}
	assert.Equal(t, 150, r.XPRequirement())

	r = models.Rank{Requirements: datatypes.JSONMap{"xp": float64(150)}}
	assert.Equal(t, 150, r.XPRequirement())

	r = models.Rank{Requirements: datatypes.JSONMap{"xp": 150}}
	assert.Equal(t, 150, r.XPRequirement())

	r = models.Rank{Requirements: datatypes.JSONMap{"comments": 10}}
	assert.Equal(t, 0, r.XPRequirement())

	r = models.Rank{Requirements: datatypes.JSONMap{}}
	assert.Equal(t, 0, r.XPRequirement())
}
