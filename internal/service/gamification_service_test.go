package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

type memoryGamificationRepo struct {
	profiles     map[uint]models.GamificationProfile
	transactions []models.XPTransaction
	badges       []models.Badge
	nextID       uint
}

func newMemoryGamificationRepo() *memoryGamificationRepo {
	return &memoryGamificationRepo{
		profiles: make(map[uint]models.GamificationProfile),
		nextID:   1,
	}
}

func (m *memoryGamificationRepo) ProfileByUserID(ctx context.Context, userID uint) (models.GamificationProfile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return models.GamificationProfile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (m *memoryGamificationRepo) ApplyAward(ctx context.Context, userID, centreID uint, mutate func(profile *models.GamificationProfile) (models.XPTransaction, error)) (models.GamificationProfile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		profile = models.GamificationProfile{ID: m.nextID, UserID: userID, CentreID: centreID, Level: 1}
		m.nextID++
	}

	entry, err := mutate(&profile)
	if err != nil {
		return models.GamificationProfile{}, err
	}

	m.profiles[userID] = profile
	m.transactions = append(m.transactions, entry)
	return profile, nil
}

func (m *memoryGamificationRepo) ListTransactions(ctx context.Context, filter repository.XPTransactionFilter) ([]models.XPTransaction, int64, error) {
	results := make([]models.XPTransaction, 0)
	for _, entry := range m.transactions {
		if filter.UserID != 0 && entry.UserID != filter.UserID {
			continue
		}
		results = append(results, entry)
	}
	return results, int64(len(results)), nil
}

func (m *memoryGamificationRepo) CreateBadge(ctx context.Context, badge *models.Badge) error {
	badge.ID = m.nextID
	m.nextID++
	m.badges = append(m.badges, *badge)
	return nil
}

func (m *memoryGamificationRepo) ListBadges(ctx context.Context, userID uint) ([]models.Badge, error) {
	results := make([]models.Badge, 0)
	for _, badge := range m.badges {
		if badge.UserID == userID {
			results = append(results, badge)
		}
	}
	return results, nil
}

type memoryUserRepo struct {
	users  map[uint]models.User
	links  map[uint][]uint
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users:  make(map[uint]models.User),
		links:  make(map[uint][]uint),
		nextID: 1,
	}
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	results := make([]models.User, 0)
	for _, user := range m.users {
		if filter.CentreID != nil && user.CentreID != *filter.CentreID {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		results = append(results, user)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryUserRepo) ChildIDs(ctx context.Context, parentID uint) ([]uint, error) {
	return m.links[parentID], nil
}

func (m *memoryUserRepo) LinkChild(ctx context.Context, parentID, childID uint) error {
	m.links[parentID] = append(m.links[parentID], childID)
	return nil
}

type memoryLeaderboard struct {
	scores map[uint]map[uint]int64
}

func newMemoryLeaderboard() *memoryLeaderboard {
	return &memoryLeaderboard{scores: make(map[uint]map[uint]int64)}
}

func (m *memoryLeaderboard) SetScore(ctx context.Context, centreID, userID uint, xp int64) error {
	if m.scores[centreID] == nil {
		m.scores[centreID] = make(map[uint]int64)
	}
	m.scores[centreID][userID] = xp
	return nil
}

func (m *memoryLeaderboard) Top(ctx context.Context, centreID uint, limit int) ([]repository.LeaderboardEntry, error) {
	entries := make([]repository.LeaderboardEntry, 0)
	for userID, xp := range m.scores[centreID] {
		entries = append(entries, repository.LeaderboardEntry{UserID: userID, XP: xp})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].XP > entries[j].XP })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

type recordingAudit struct {
	entries []AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type gamificationFixture struct {
	svc         *gamificationService
	repo        *memoryGamificationRepo
	users       *memoryUserRepo
	leaderboard *memoryLeaderboard
	audit       *recordingAudit
}

func newGamificationFixture(t *testing.T) gamificationFixture {
	t.Helper()

	repo := newMemoryGamificationRepo()
	users := newMemoryUserRepo()
	leaderboard := newMemoryLeaderboard()
	audit := &recordingAudit{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewGamificationService(repo, users, leaderboard, audit, validate, zerolog.Nop()).(*gamificationService)

	users.users[7] = models.User{ID: 7, CentreID: 1, Role: models.RoleStudent, Name: "Student Seven"}

	return gamificationFixture{svc: svc, repo: repo, users: users, leaderboard: leaderboard, audit: audit}
}

func staffActor() authz.Actor {
	return authz.Actor{UserID: 3, Role: models.RoleTeacher, CentreID: 1}
}

func TestAwardXPAccumulatesAndLevels(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	response, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 80, Reason: "quiz completed"})
	require.NoError(t, err)
	require.Equal(t, int64(80), response.Profile.XP)
	require.Equal(t, 1, response.Profile.Level)
	require.False(t, response.Awarded.LevelUp)

	response, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "homework submitted"})
	require.NoError(t, err)
	require.Equal(t, int64(130), response.Profile.XP)
	require.Equal(t, 2, response.Profile.Level)
	require.True(t, response.Awarded.LevelUp)

	require.Len(t, fx.repo.transactions, 2)
	require.Equal(t, int64(80), fx.repo.transactions[0].Amount)
	require.Equal(t, int64(50), fx.repo.transactions[1].Amount)
}

func TestAwardXPRejectsInvalidAmounts(t *testing.T) {
	fx := newGamificationFixture(t)

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 0, Reason: "nothing"})
	require.Error(t, err)

	_, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: -50, Reason: "negative"})
	require.Error(t, err)

	_, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 10001, Reason: "too much"})
	require.Error(t, err)

	require.Empty(t, fx.repo.transactions)
}

func TestAwardXPStreakRules(t *testing.T) {
	fx := newGamificationFixture(t)

	day := func(d int) time.Time { return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC) }

	fx.svc.now = func() time.Time { return day(10) }
	response, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 10, Reason: "first activity"})
	require.NoError(t, err)
	require.Equal(t, 1, response.Profile.Streak)

	// Same day leaves the streak alone.
	fx.svc.now = func() time.Time { return day(10).Add(6 * time.Hour) }
	response, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 10, Reason: "same day"})
	require.NoError(t, err)
	require.Equal(t, 1, response.Profile.Streak)

	// The next calendar day extends it.
	fx.svc.now = func() time.Time { return day(11) }
	response, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 10, Reason: "next day"})
	require.NoError(t, err)
	require.Equal(t, 2, response.Profile.Streak)

	// A multi-day gap resets to one.
	fx.svc.now = func() time.Time { return day(15) }
	response, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 10, Reason: "after gap"})
	require.NoError(t, err)
	require.Equal(t, 1, response.Profile.Streak)
}

func TestAwardXPRejectsCrossCentreStaff(t *testing.T) {
	fx := newGamificationFixture(t)

	actor := authz.Actor{UserID: 4, Role: models.RoleTeacher, CentreID: 2}
	_, err := fx.svc.AwardXP(context.Background(), actor, dto.AwardXPRequest{UserID: 7, XP: 10, Reason: "wrong centre"})
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func TestDeductXPClampsAtZero(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 30, Reason: "seed"})
	require.NoError(t, err)

	response, err := fx.svc.DeductXP(context.Background(), staffActor(), dto.DeductXPRequest{UserID: 7, XP: 100, Reason: "correction"})
	require.NoError(t, err)
	require.Equal(t, int64(0), response.Profile.XP)
	require.Equal(t, 1, response.Profile.Level)
	require.Equal(t, int64(-30), response.Awarded.XP)

	// Ledger records the clamped magnitude, not the requested one.
	require.Equal(t, int64(-30), fx.repo.transactions[1].Amount)
}

func TestDeductXPLeavesStreakAlone(t *testing.T) {
	fx := newGamificationFixture(t)

	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "seed"})
	require.NoError(t, err)

	before := fx.repo.profiles[7]

	response, err := fx.svc.DeductXP(context.Background(), staffActor(), dto.DeductXPRequest{UserID: 7, XP: 20, Reason: "correction"})
	require.NoError(t, err)
	require.Equal(t, before.Streak, response.Profile.Streak)
	require.Equal(t, before.LastActivityAt, response.Profile.LastActivityAt)
}

func TestDeductXPIsAudited(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "seed"})
	require.NoError(t, err)

	_, err = fx.svc.DeductXP(context.Background(), staffActor(), dto.DeductXPRequest{UserID: 7, XP: 20, Reason: "correction"})
	require.NoError(t, err)

	require.Len(t, fx.audit.entries, 1)
	require.Equal(t, "xp.deduct", fx.audit.entries[0].Action)
	require.Equal(t, uint(3), fx.audit.entries[0].ActorID)
}

func TestAwardBadgeRecordsAndAudits(t *testing.T) {
	fx := newGamificationFixture(t)

	badge, err := fx.svc.AwardBadge(context.Background(), staffActor(), dto.AwardBadgeRequest{UserID: 7, Name: "Early Bird", Type: "attendance"})
	require.NoError(t, err)
	require.Equal(t, "Early Bird", badge.Name)

	require.Len(t, fx.repo.badges, 1)
	require.Len(t, fx.audit.entries, 1)
	require.Equal(t, "badge.award", fx.audit.entries[0].Action)
}

func TestProfileOwnerAndParentAccess(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "seed"})
	require.NoError(t, err)

	owner := authz.Actor{UserID: 7, Role: models.RoleStudent, CentreID: 1}
	profile, err := fx.svc.Profile(context.Background(), owner, 7)
	require.NoError(t, err)
	require.Equal(t, int64(50), profile.XP)

	parent := authz.Actor{UserID: 20, Role: models.RoleParent, CentreID: 1, ChildIDs: []uint{7}}
	_, err = fx.svc.Profile(context.Background(), parent, 7)
	require.NoError(t, err)

	stranger := authz.Actor{UserID: 8, Role: models.RoleStudent, CentreID: 1}
	_, err = fx.svc.Profile(context.Background(), stranger, 7)
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func TestTransactionsListLedger(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 80, Reason: "quiz"})
	require.NoError(t, err)
	_, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "attendance"})
	require.NoError(t, err)

	supervisor := authz.Actor{UserID: 4, Role: models.RoleSupervisor, CentreID: 1}
	_, err = fx.svc.DeductXP(context.Background(), supervisor, dto.DeductXPRequest{UserID: 7, XP: 30, Reason: "correction"})
	require.NoError(t, err)

	owner := authz.Actor{UserID: 7, Role: models.RoleStudent, CentreID: 1}
	entries, total, err := fx.svc.Transactions(context.Background(), owner, 7, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, entries, 3)
	require.Equal(t, int64(80), entries[0].Amount)
	require.Equal(t, int64(50), entries[1].Amount)
	require.Equal(t, int64(-30), entries[2].Amount)
	require.Equal(t, "correction", entries[2].Reason)
}

func TestTransactionsAccessControl(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "seed"})
	require.NoError(t, err)

	parent := authz.Actor{UserID: 20, Role: models.RoleParent, CentreID: 1, ChildIDs: []uint{7}}
	_, total, err := fx.svc.Transactions(context.Background(), parent, 7, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	stranger := authz.Actor{UserID: 8, Role: models.RoleStudent, CentreID: 1}
	_, _, err = fx.svc.Transactions(context.Background(), stranger, 7, 1, 20)
	require.ErrorIs(t, err, authz.ErrForbidden)

	_, _, err = fx.svc.Transactions(context.Background(), staffActor(), 99, 1, 20)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestLeaderboardMirrorsAwards(t *testing.T) {
	fx := newGamificationFixture(t)
	fx.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	fx.users.users[8] = models.User{ID: 8, CentreID: 1, Role: models.RoleStudent, Name: "Student Eight"}

	_, err := fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 7, XP: 50, Reason: "seed"})
	require.NoError(t, err)
	_, err = fx.svc.AwardXP(context.Background(), staffActor(), dto.AwardXPRequest{UserID: 8, XP: 120, Reason: "seed"})
	require.NoError(t, err)

	board, err := fx.svc.Leaderboard(context.Background(), staffActor(), 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	require.Equal(t, uint(8), board.Entries[0].UserID)
	require.Equal(t, 1, board.Entries[0].Rank)
}
