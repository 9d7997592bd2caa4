package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/domain/repository"
)

func newTestReconciliationService(
	participantRepo *MockParticipantRepository,
	rewardRepo *MockRewardRepository,
	answerRepo *MockAnswerRepository,
	redemptionRepo *MockRedemptionRepository,
) *ReconciliationService {
	return NewReconciliationService(participantRepo, rewardRepo, answerRepo, redemptionRepo, &fakeTxManager{}, nil)
}

func TestReconciliationService_Scan_CleanLedger(t *testing.T) {
	// Arrange: баланс = начислено - списано, остаток = quantity - обмены
	mockParticipantRepo := new(MockParticipantRepository)
	mockRewardRepo := new(MockRewardRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockRedemptionRepo := new(MockRedemptionRepository)

	mockParticipantRepo.On("ListAll").Return([]entity.Participant{
		{ID: 1, RoomID: 1, TotalRupiah: 35000},
		{ID: 2, RoomID: 1, TotalRupiah: 0},
	}, nil)
	mockAnswerRepo.On("AwardTotals").Return([]repository.ParticipantAwardTotal{
		{ParticipantID: 1, TotalAwarded: 50000},
	}, nil)
	mockRedemptionRepo.On("SpendTotals").Return([]repository.ParticipantSpendTotal{
		{ParticipantID: 1, TotalSpent: 15000},
	}, nil)
	mockRewardRepo.On("ListAll").Return([]entity.Reward{
		{ID: 3, RoomID: 1, Name: "Sarung", Quantity: 5, RemainingQuantity: 4},
	}, nil)
	mockRedemptionRepo.On("ClaimCounts").Return([]repository.RewardClaimCount{
		{RewardID: 3, Claimed: 1},
	}, nil)
	mockAnswerRepo.On("ListDuplicates").Return([]entity.Answer{}, nil)

	svc := newTestReconciliationService(mockParticipantRepo, mockRewardRepo, mockAnswerRepo, mockRedemptionRepo)

	// Act
	report, err := svc.Scan(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, report.IsClean(), "Сходящийся леджер не должен давать расхождений")
	assert.Empty(t, report.ParticipantDrifts)
	assert.Empty(t, report.RewardDrifts)
	assert.Empty(t, report.DuplicateAnswers)
}

func TestReconciliationService_Scan_DetectsAllDriftKinds(t *testing.T) {
	// Arrange
	mockParticipantRepo := new(MockParticipantRepository)
	mockRewardRepo := new(MockRewardRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockRedemptionRepo := new(MockRedemptionRepository)

	// Участник #1: баланс завышен на 10000; #2 сходится
	mockParticipantRepo.On("ListAll").Return([]entity.Participant{
		{ID: 1, RoomID: 1, TotalRupiah: 45000},
		{ID: 2, RoomID: 1, TotalRupiah: 5000},
	}, nil)
	mockAnswerRepo.On("AwardTotals").Return([]repository.ParticipantAwardTotal{
		{ParticipantID: 1, TotalAwarded: 50000},
		{ParticipantID: 2, TotalAwarded: 5000},
	}, nil)
	mockRedemptionRepo.On("SpendTotals").Return([]repository.ParticipantSpendTotal{
		{ParticipantID: 1, TotalSpent: 15000},
	}, nil)
	// Приз #3: остаток занижен на 1
	mockRewardRepo.On("ListAll").Return([]entity.Reward{
		{ID: 3, RoomID: 1, Name: "Sarung", Quantity: 5, RemainingQuantity: 3},
	}, nil)
	mockRedemptionRepo.On("ClaimCounts").Return([]repository.RewardClaimCount{
		{RewardID: 3, Claimed: 1},
	}, nil)
	// Дубликат: участник #1 дважды ответил на вопрос #10
	mockAnswerRepo.On("ListDuplicates").Return([]entity.Answer{
		{ID: 100, ParticipantID: 1, QuestionID: 10},
		{ID: 105, ParticipantID: 1, QuestionID: 10},
	}, nil)

	svc := newTestReconciliationService(mockParticipantRepo, mockRewardRepo, mockAnswerRepo, mockRedemptionRepo)

	// Act
	report, err := svc.Scan(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, report.ParticipantDrifts, 1)
	assert.Equal(t, uint(1), report.ParticipantDrifts[0].ParticipantID)
	assert.Equal(t, int64(45000), report.ParticipantDrifts[0].Actual)
	assert.Equal(t, int64(35000), report.ParticipantDrifts[0].Expected)
	assert.Equal(t, int64(10000), report.ParticipantDrifts[0].Delta)

	require.Len(t, report.RewardDrifts, 1)
	assert.Equal(t, uint(3), report.RewardDrifts[0].RewardID)
	assert.Equal(t, 3, report.RewardDrifts[0].Actual)
	assert.Equal(t, 4, report.RewardDrifts[0].Expected)

	require.Len(t, report.DuplicateAnswers, 1)
	assert.Equal(t, uint(100), report.DuplicateAnswers[0].KeepID, "Сохраняется самый ранний ответ")
	assert.Equal(t, []uint{105}, report.DuplicateAnswers[0].ExtraIDs)
}

func TestReconciliationService_Scan_ParticipantWithoutLedgerRows(t *testing.T) {
	// Arrange: у участника нет ни ответов, ни обменов — ожидаемый баланс 0
	mockParticipantRepo := new(MockParticipantRepository)
	mockRewardRepo := new(MockRewardRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockRedemptionRepo := new(MockRedemptionRepository)

	mockParticipantRepo.On("ListAll").Return([]entity.Participant{
		{ID: 1, RoomID: 1, TotalRupiah: 7000},
	}, nil)
	mockAnswerRepo.On("AwardTotals").Return([]repository.ParticipantAwardTotal{}, nil)
	mockRedemptionRepo.On("SpendTotals").Return([]repository.ParticipantSpendTotal{}, nil)
	mockRewardRepo.On("ListAll").Return([]entity.Reward{}, nil)
	mockRedemptionRepo.On("ClaimCounts").Return([]repository.RewardClaimCount{}, nil)
	mockAnswerRepo.On("ListDuplicates").Return([]entity.Answer{}, nil)

	svc := newTestReconciliationService(mockParticipantRepo, mockRewardRepo, mockAnswerRepo, mockRedemptionRepo)

	// Act
	report, err := svc.Scan(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, report.ParticipantDrifts, 1)
	assert.Equal(t, int64(0), report.ParticipantDrifts[0].Expected)
	assert.Equal(t, int64(7000), report.ParticipantDrifts[0].Delta)
}

func TestReconciliationService_Repair_OverwritesWithLedgerValues(t *testing.T) {
	// Arrange
	mockParticipantRepo := new(MockParticipantRepository)
	mockRewardRepo := new(MockRewardRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockRedemptionRepo := new(MockRedemptionRepository)

	report := &DriftReport{
		ParticipantDrifts: []ParticipantDrift{
			{ParticipantID: 1, RoomID: 1, Actual: 45000, Expected: 35000, Delta: 10000},
		},
		RewardDrifts: []RewardDrift{
			{RewardID: 3, RoomID: 1, Name: "Sarung", Actual: 3, Expected: 4, Delta: -1},
		},
	}

	// Починка пересчитывает ожидаемое значение заново под локом
	mockParticipantRepo.On("GetForUpdate", mock.Anything, uint(1)).
		Return(&entity.Participant{ID: 1, RoomID: 1, TotalRupiah: 45000}, nil)
	mockAnswerRepo.On("SumAwarded", mock.Anything, uint(1)).Return(int64(50000), nil)
	mockRedemptionRepo.On("SumSpent", mock.Anything, uint(1)).Return(int64(15000), nil)
	mockParticipantRepo.On("SetRupiah", mock.Anything, uint(1), int64(35000)).Return(nil)

	mockRewardRepo.On("GetForUpdate", mock.Anything, uint(3)).
		Return(&entity.Reward{ID: 3, RoomID: 1, Name: "Sarung", Quantity: 5, RemainingQuantity: 3}, nil)
	mockRedemptionRepo.On("CountClaims", mock.Anything, uint(3)).Return(int64(1), nil)
	mockRewardRepo.On("SetRemaining", mock.Anything, uint(3), 4).Return(nil)

	svc := newTestReconciliationService(mockParticipantRepo, mockRewardRepo, mockAnswerRepo, mockRedemptionRepo)

	// Act
	result, err := svc.Repair(context.Background(), report)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.ParticipantsRepaired)
	assert.Equal(t, 1, result.RewardsRepaired)
	assert.Equal(t, 0, result.Failed)
	mockParticipantRepo.AssertExpectations(t)
	mockRewardRepo.AssertExpectations(t)
}

func TestReconciliationService_Repair_SkipsStaleDrift(t *testing.T) {
	// Arrange: к моменту починки баланс уже сошелся (отчет устарел)
	mockParticipantRepo := new(MockParticipantRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockRedemptionRepo := new(MockRedemptionRepository)

	report := &DriftReport{
		ParticipantDrifts: []ParticipantDrift{
			{ParticipantID: 1, RoomID: 1, Actual: 45000, Expected: 35000, Delta: 10000},
		},
	}

	mockParticipantRepo.On("GetForUpdate", mock.Anything, uint(1)).
		Return(&entity.Participant{ID: 1, RoomID: 1, TotalRupiah: 35000}, nil)
	mockAnswerRepo.On("SumAwarded", mock.Anything, uint(1)).Return(int64(50000), nil)
	mockRedemptionRepo.On("SumSpent", mock.Anything, uint(1)).Return(int64(15000), nil)

	svc := newTestReconciliationService(mockParticipantRepo, new(MockRewardRepository), mockAnswerRepo, mockRedemptionRepo)

	// Act
	result, err := svc.Repair(context.Background(), report)

	// Assert: перезаписи не было
	require.NoError(t, err)
	mockParticipantRepo.AssertNotCalled(t, "SetRupiah", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, result.ParticipantsRepaired)
}

func TestReconciliationService_Repair_RemovesDuplicatesKeepingEarliest(t *testing.T) {
	// Arrange
	mockAnswerRepo := new(MockAnswerRepository)

	report := &DriftReport{
		DuplicateAnswers: []DuplicateAnswerGroup{
			{ParticipantID: 1, QuestionID: 10, KeepID: 100, ExtraIDs: []uint{105, 107}},
		},
	}

	mockAnswerRepo.On("DeleteByIDs", mock.Anything, []uint{105, 107}).Return(nil)

	svc := newTestReconciliationService(new(MockParticipantRepository), new(MockRewardRepository),
		mockAnswerRepo, new(MockRedemptionRepository))

	// Act
	result, err := svc.Repair(context.Background(), report)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.DuplicatesRemoved)
	mockAnswerRepo.AssertExpectations(t)
}

func TestReconciliationService_Repair_FailureDoesNotStopOthers(t *testing.T) {
	// Arrange: первая цель падает, вторая все равно чинится
	mockParticipantRepo := new(MockParticipantRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockRedemptionRepo := new(MockRedemptionRepository)

	report := &DriftReport{
		ParticipantDrifts: []ParticipantDrift{
			{ParticipantID: 1, Actual: 100, Expected: 0},
			{ParticipantID: 2, Actual: 9000, Expected: 4000},
		},
	}

	mockParticipantRepo.On("GetForUpdate", mock.Anything, uint(1)).
		Return(nil, errors.New("connection reset"))
	mockParticipantRepo.On("GetForUpdate", mock.Anything, uint(2)).
		Return(&entity.Participant{ID: 2, TotalRupiah: 9000}, nil)
	mockAnswerRepo.On("SumAwarded", mock.Anything, uint(2)).Return(int64(4000), nil)
	mockRedemptionRepo.On("SumSpent", mock.Anything, uint(2)).Return(int64(0), nil)
	mockParticipantRepo.On("SetRupiah", mock.Anything, uint(2), int64(4000)).Return(nil)

	svc := newTestReconciliationService(mockParticipantRepo, new(MockRewardRepository), mockAnswerRepo, mockRedemptionRepo)

	// Act
	result, err := svc.Repair(context.Background(), report)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.ParticipantsRepaired)
}

func TestGroupDuplicates_SplitsByGroup(t *testing.T) {
	// Arrange: две группы в одном плоском списке
	answers := []entity.Answer{
		{ID: 100, ParticipantID: 1, QuestionID: 10},
		{ID: 105, ParticipantID: 1, QuestionID: 10},
		{ID: 107, ParticipantID: 1, QuestionID: 10},
		{ID: 200, ParticipantID: 2, QuestionID: 11},
		{ID: 201, ParticipantID: 2, QuestionID: 11},
	}

	// Act
	groups := groupDuplicates(answers)

	// Assert
	require.Len(t, groups, 2)
	assert.Equal(t, uint(100), groups[0].KeepID)
	assert.Equal(t, []uint{105, 107}, groups[0].ExtraIDs)
	assert.Equal(t, uint(200), groups[1].KeepID)
	assert.Equal(t, []uint{201}, groups[1].ExtraIDs)
}
