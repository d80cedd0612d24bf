package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/repository"
)

// ErrUnknownMasteryLevel indicates the level value is outside the closed set.
var ErrUnknownMasteryLevel = errors.New("unknown mastery level")

// ErrInvalidAyahRange indicates ayah_to precedes ayah_from.
var ErrInvalidAyahRange = errors.New("ayah range is inverted")

// MasteryService tracks per-ayah-range memorisation progress and renders the
// per-surah heatmap.
type MasteryService interface {
	Update(ctx context.Context, schoolID, studentID uint, actor Actor, payload dto.MasteryUpdateRequest) (dto.MasteryRecordResponse, error)
	Heatmap(ctx context.Context, schoolID, studentID uint) (dto.HeatmapResponse, error)
}

type masteryService struct {
	records   repository.MasteryRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMasteryService builds the mastery service.
func NewMasteryService(records repository.MasteryRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) MasteryService {
	return &masteryService{
		records:   records,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "mastery_service").Logger(),
	}
}

func heatmapCacheKey(schoolID, studentID uint) string {
	return fmt.Sprintf("heatmap:school:%d:student:%d", schoolID, studentID)
}

func (s *masteryService) Update(ctx context.Context, schoolID, studentID uint, actor Actor, payload dto.MasteryUpdateRequest) (dto.MasteryRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MasteryRecordResponse{}, err
	}

	if !actor.Role.IsStaff() {
		return dto.MasteryRecordResponse{}, ErrForbidden
	}

	level, ok := models.ParseMasteryLevel(payload.Level)
	if !ok {
		return dto.MasteryRecordResponse{}, fmt.Errorf("%w: %q", ErrUnknownMasteryLevel, payload.Level)
	}

	if payload.AyahTo < payload.AyahFrom {
		return dto.MasteryRecordResponse{}, fmt.Errorf("%w: %d..%d", ErrInvalidAyahRange, payload.AyahFrom, payload.AyahTo)
	}

	record, err := s.records.FindRange(ctx, schoolID, studentID, payload.Surah, payload.AyahFrom, payload.AyahTo)
	switch {
	case err == nil:
		record.Level = level
		record.UpdatedBy = actor.ID
		if err := s.records.Update(ctx, &record); err != nil {
			return dto.MasteryRecordResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.MasteryRecord{
			SchoolID:  schoolID,
			StudentID: studentID,
			Surah:     payload.Surah,
			AyahFrom:  payload.AyahFrom,
			AyahTo:    payload.AyahTo,
			Level:     level,
			UpdatedBy: actor.ID,
		}
		if err := s.records.Create(ctx, &record); err != nil {
			return dto.MasteryRecordResponse{}, err
		}
	default:
		return dto.MasteryRecordResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, heatmapCacheKey(schoolID, studentID)).Err(); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate heatmap cache")
		}
	}

	s.logger.Info().
		Uint("student_id", studentID).
		Int("surah", record.Surah).
		Str("level", string(record.Level)).
		Msg("mastery updated")

	return dto.NewMasteryRecordResponse(record), nil
}

func (s *masteryService) Heatmap(ctx context.Context, schoolID, studentID uint) (dto.HeatmapResponse, error) {
	cacheKey := heatmapCacheKey(schoolID, studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.HeatmapResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read heatmap cache")
		}
	}

	records, err := s.records.ListForStudent(ctx, schoolID, studentID)
	if err != nil {
		return dto.HeatmapResponse{}, err
	}

	response := dto.HeatmapResponse{
		StudentID: studentID,
		Cells:     buildHeatmap(records),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store heatmap cache")
			}
		}
	}

	return response, nil
}

// buildHeatmap rolls ayah-range records up per surah. The cell score averages
// level ranks weighted by ayah count; the dominant level is the one covering
// the most ayahs.
func buildHeatmap(records []models.MasteryRecord) []dto.HeatmapCell {
	type surahAccum struct {
		ayahs      int
		rankTotal  int
		levelAyahs map[models.MasteryLevel]int
	}

	bySurah := make(map[int]*surahAccum)
	for _, record := range records {
		span := record.AyahTo - record.AyahFrom + 1
		if span <= 0 {
			continue
		}

		accum, ok := bySurah[record.Surah]
		if !ok {
			accum = &surahAccum{levelAyahs: make(map[models.MasteryLevel]int)}
			bySurah[record.Surah] = accum
		}

		accum.ayahs += span
		accum.rankTotal += record.Level.Rank() * span
		accum.levelAyahs[record.Level] += span
	}

	surahs := make([]int, 0, len(bySurah))
	for surah := range bySurah {
		surahs = append(surahs, surah)
	}
	sort.Ints(surahs)

	cells := make([]dto.HeatmapCell, 0, len(surahs))
	for _, surah := range surahs {
		accum := bySurah[surah]

		dominant := models.MasteryNotStarted
		dominantAyahs := -1
		for _, level := range []models.MasteryLevel{models.MasteryNotStarted, models.MasteryLearning, models.MasteryProficient, models.MasteryMastered} {
			if ayahs := accum.levelAyahs[level]; ayahs > dominantAyahs {
				dominant = level
				dominantAyahs = ayahs
			}
		}

		cells = append(cells, dto.HeatmapCell{
			Surah:         surah,
			AyahsCovered:  accum.ayahs,
			DominantLevel: string(dominant),
			Score:         roundOneDecimal(float64(accum.rankTotal) / float64(accum.ayahs)),
		})
	}

	return cells
}
