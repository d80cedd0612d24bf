package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
)

type memoryMasteryRepo struct {
	records []models.MasteryRecord
	nextID  uint
}

func newMemoryMasteryRepo() *memoryMasteryRepo {
	return &memoryMasteryRepo{nextID: 1}
}

func (m *memoryMasteryRepo) FindRange(_ context.Context, schoolID, studentID uint, surah, ayahFrom, ayahTo int) (models.MasteryRecord, error) {
	for _, record := range m.records {
		if record.SchoolID == schoolID && record.StudentID == studentID &&
			record.Surah == surah && record.AyahFrom == ayahFrom && record.AyahTo == ayahTo {
			return record, nil
		}
	}
	return models.MasteryRecord{}, gorm.ErrRecordNotFound
}

func (m *memoryMasteryRepo) Create(_ context.Context, record *models.MasteryRecord) error {
	record.ID = m.nextID
	record.UpdatedAt = time.Now()
	m.nextID++
	m.records = append(m.records, *record)
	return nil
}

func (m *memoryMasteryRepo) Update(_ context.Context, record *models.MasteryRecord) error {
	for i := range m.records {
		if m.records[i].ID == record.ID {
			record.UpdatedAt = time.Now()
			m.records[i] = *record
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryMasteryRepo) ListForStudent(_ context.Context, schoolID, studentID uint) ([]models.MasteryRecord, error) {
	results := make([]models.MasteryRecord, 0, len(m.records))
	for _, record := range m.records {
		if record.SchoolID == schoolID && record.StudentID == studentID {
			results = append(results, record)
		}
	}
	return results, nil
}

func newMasteryFixture(t *testing.T) (*memoryMasteryRepo, *miniredis.Miniredis, MasteryService) {
	t.Helper()

	repo := newMemoryMasteryRepo()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	validate := validator.New(validator.WithRequiredStructEnabled())
	return repo, mr, NewMasteryService(repo, cache, time.Minute, validate, zerolog.Nop())
}

func updateMastery(t *testing.T, svc MasteryService, surah, from, to int, level string) {
	t.Helper()

	_, err := svc.Update(context.Background(), 1, 12, Actor{ID: 3, Role: models.RoleTeacher}, dto.MasteryUpdateRequest{
		Surah:    surah,
		AyahFrom: from,
		AyahTo:   to,
		Level:    level,
	})
	require.NoError(t, err)
}

func TestUpdateMasteryValidationRules(t *testing.T) {
	_, _, svc := newMasteryFixture(t)
	teacher := Actor{ID: 3, Role: models.RoleTeacher}

	_, err := svc.Update(context.Background(), 1, 12, teacher, dto.MasteryUpdateRequest{
		Surah: 1, AyahFrom: 1, AyahTo: 7, Level: "legendary",
	})
	require.ErrorIs(t, err, ErrUnknownMasteryLevel)

	_, err = svc.Update(context.Background(), 1, 12, teacher, dto.MasteryUpdateRequest{
		Surah: 1, AyahFrom: 7, AyahTo: 1, Level: "learning",
	})
	require.ErrorIs(t, err, ErrInvalidAyahRange)

	_, err = svc.Update(context.Background(), 1, 12, Actor{ID: 12, Role: models.RoleStudent}, dto.MasteryUpdateRequest{
		Surah: 1, AyahFrom: 1, AyahTo: 7, Level: "learning",
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateMasteryUpsertsSameRange(t *testing.T) {
	repo, _, svc := newMasteryFixture(t)

	updateMastery(t, svc, 67, 1, 10, "learning")
	updateMastery(t, svc, 67, 1, 10, "mastered")

	require.Len(t, repo.records, 1)
	require.Equal(t, models.MasteryMastered, repo.records[0].Level)
}

func TestHeatmapAggregatesPerSurah(t *testing.T) {
	_, _, svc := newMasteryFixture(t)

	updateMastery(t, svc, 67, 1, 10, "mastered")
	updateMastery(t, svc, 67, 11, 30, "learning")
	updateMastery(t, svc, 1, 1, 7, "proficient")

	heatmap, err := svc.Heatmap(context.Background(), 1, 12)
	require.NoError(t, err)
	require.Equal(t, uint(12), heatmap.StudentID)
	require.Len(t, heatmap.Cells, 2)

	// Surahs come back in ascending order.
	require.Equal(t, 1, heatmap.Cells[0].Surah)
	require.Equal(t, 7, heatmap.Cells[0].AyahsCovered)
	require.Equal(t, "proficient", heatmap.Cells[0].DominantLevel)
	require.InDelta(t, 2, heatmap.Cells[0].Score, 0.001)

	require.Equal(t, 67, heatmap.Cells[1].Surah)
	require.Equal(t, 30, heatmap.Cells[1].AyahsCovered)
	require.Equal(t, "learning", heatmap.Cells[1].DominantLevel)
	// 10 ayahs at rank 3 plus 20 at rank 1 averages 5/3.
	require.InDelta(t, 1.7, heatmap.Cells[1].Score, 0.001)
}

func TestHeatmapCacheInvalidatedOnUpdate(t *testing.T) {
	_, mr, svc := newMasteryFixture(t)

	updateMastery(t, svc, 67, 1, 10, "learning")

	first, err := svc.Heatmap(context.Background(), 1, 12)
	require.NoError(t, err)
	require.True(t, mr.Exists(heatmapCacheKey(1, 12)))

	updateMastery(t, svc, 67, 1, 10, "mastered")
	require.False(t, mr.Exists(heatmapCacheKey(1, 12)))

	refreshed, err := svc.Heatmap(context.Background(), 1, 12)
	require.NoError(t, err)
	require.NotEqual(t, first.Cells[0].DominantLevel, refreshed.Cells[0].DominantLevel)
}
