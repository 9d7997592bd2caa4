package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/domain/repository"
)

// ============================================================================
// Общие моки для тестов сервисов.
// fakeTxManager вызывает fn с nil *gorm.DB: репозитории в тестах — моки,
// реальное соединение им не нужно, а семантика "все или ничего"
// проверяется через возвращаемую из fn ошибку.
// ============================================================================

type fakeTxManager struct {
	err error // если задана, возвращается вместо запуска fn
}

func (m *fakeTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(nil)
}

// helper для создания pointer
func uintPtr(v uint) *uint { return &v }

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByRoomID(roomID uint) ([]entity.Question, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetForUpdate(tx *gorm.DB, id uint) (*entity.Question, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) Disable(tx *gorm.DB, id uint) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

// MockParticipantRepository реализует repository.ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(participant *entity.Participant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetByID(id uint) (*entity.Participant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListAll() ([]entity.Participant, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetForUpdate(tx *gorm.DB, id uint) (*entity.Participant, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepository) AddRupiah(tx *gorm.DB, id uint, delta int64) error {
	args := m.Called(tx, id, delta)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetRupiah(tx *gorm.DB, id uint, value int64) error {
	args := m.Called(tx, id, value)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetStatus(tx *gorm.DB, id uint, status string) error {
	args := m.Called(tx, id, status)
	return args.Error(0)
}

// MockAnswerRepository реализует repository.AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Create(tx *gorm.DB, answer *entity.Answer) error {
	args := m.Called(tx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByID(id uint) (*entity.Answer, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Answer), args.Error(1)
}

func (m *MockAnswerRepository) HasAttempt(tx *gorm.DB, participantID, questionID uint) (bool, error) {
	args := m.Called(tx, participantID, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnswerRepository) HasCorrectAnswer(tx *gorm.DB, questionID uint) (bool, error) {
	args := m.Called(tx, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnswerRepository) GetByParticipant(participantID uint) ([]entity.Answer, error) {
	args := m.Called(participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

func (m *MockAnswerRepository) AwardTotals() ([]repository.ParticipantAwardTotal, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ParticipantAwardTotal), args.Error(1)
}

func (m *MockAnswerRepository) SumAwarded(tx *gorm.DB, participantID uint) (int64, error) {
	args := m.Called(tx, participantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnswerRepository) ListDuplicates() ([]entity.Answer, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

func (m *MockAnswerRepository) DeleteByIDs(tx *gorm.DB, ids []uint) error {
	args := m.Called(tx, ids)
	return args.Error(0)
}

// MockRewardRepository реализует repository.RewardRepository
type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) Create(reward *entity.Reward) error {
	args := m.Called(reward)
	return args.Error(0)
}

func (m *MockRewardRepository) GetByID(id uint) (*entity.Reward, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reward), args.Error(1)
}

func (m *MockRewardRepository) ListAll() ([]entity.Reward, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Reward), args.Error(1)
}

func (m *MockRewardRepository) GetForUpdate(tx *gorm.DB, id uint) (*entity.Reward, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reward), args.Error(1)
}

func (m *MockRewardRepository) AdjustStock(tx *gorm.DB, id uint, delta int) error {
	args := m.Called(tx, id, delta)
	return args.Error(0)
}

func (m *MockRewardRepository) SetRemaining(tx *gorm.DB, id uint, value int) error {
	args := m.Called(tx, id, value)
	return args.Error(0)
}

// MockRedemptionRepository реализует repository.RedemptionRepository
type MockRedemptionRepository struct {
	mock.Mock
}

func (m *MockRedemptionRepository) Create(tx *gorm.DB, redemption *entity.Redemption) error {
	args := m.Called(tx, redemption)
	return args.Error(0)
}

func (m *MockRedemptionRepository) GetByID(id uint) (*entity.Redemption, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Redemption), args.Error(1)
}

func (m *MockRedemptionRepository) GetByParticipant(participantID uint) ([]entity.Redemption, error) {
	args := m.Called(participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Redemption), args.Error(1)
}

func (m *MockRedemptionRepository) GetForUpdate(tx *gorm.DB, id uint) (*entity.Redemption, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Redemption), args.Error(1)
}

func (m *MockRedemptionRepository) UpdateStatus(tx *gorm.DB, id uint, status, notes string) error {
	args := m.Called(tx, id, status, notes)
	return args.Error(0)
}

func (m *MockRedemptionRepository) HasActiveSystemClaim(tx *gorm.DB, participantID uint) (bool, error) {
	args := m.Called(tx, participantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedemptionRepository) SpendTotals() ([]repository.ParticipantSpendTotal, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ParticipantSpendTotal), args.Error(1)
}

func (m *MockRedemptionRepository) SumSpent(tx *gorm.DB, participantID uint) (int64, error) {
	args := m.Called(tx, participantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRedemptionRepository) ClaimCounts() ([]repository.RewardClaimCount, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RewardClaimCount), args.Error(1)
}

func (m *MockRedemptionRepository) CountClaims(tx *gorm.DB, rewardID uint) (int64, error) {
	args := m.Called(tx, rewardID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}
