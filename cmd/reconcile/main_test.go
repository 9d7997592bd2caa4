package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/thr-api/internal/service"
)

func TestExitCode(t *testing.T) {
	dirty := &service.DriftReport{
		ParticipantDrifts: []service.ParticipantDrift{
			{ParticipantID: 7, Actual: 10000, Expected: 12000, Delta: -2000},
		},
	}

	testCases := []struct {
		name     string
		report   *service.DriftReport
		repaired *service.RepairReport
		expected int
	}{
		{
			name:     "Чистый леджер без починки",
			report:   &service.DriftReport{},
			repaired: nil,
			expected: 0,
		},
		{
			name:     "Расхождения найдены, починка не запрашивалась",
			report:   dirty,
			repaired: nil,
			expected: 1,
		},
		{
			name:     "Все расхождения починены",
			report:   dirty,
			repaired: &service.RepairReport{ParticipantsRepaired: 1},
			expected: 0,
		},
		{
			name:     "Починка прошла частично",
			report:   dirty,
			repaired: &service.RepairReport{ParticipantsRepaired: 0, Failed: 1},
			expected: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, exitCode(tc.report, tc.repaired),
				"Код выхода должен отражать, остались ли непочиненные расхождения")
		})
	}
}
