package dto

import (
	"time"

	"github.com/quranakh/quranakh-api/internal/models"
)

// MasteryUpdateRequest records a teacher's assessment of an ayah range.
type MasteryUpdateRequest struct {
	Surah    int    `json:"surah" validate:"required,min=1,max=114"`
	AyahFrom int    `json:"ayah_from" validate:"required,min=1"`
	AyahTo   int    `json:"ayah_to" validate:"required,min=1"`
	Level    string `json:"level" validate:"required"`
}

// MasteryRecordResponse serializes one mastery record.
type MasteryRecordResponse struct {
	ID        uint      `json:"id"`
	StudentID uint      `json:"student_id"`
	Surah     int       `json:"surah"`
	AyahFrom  int       `json:"ayah_from"`
	AyahTo    int       `json:"ayah_to"`
	Level     string    `json:"level"`
	UpdatedBy uint      `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HeatmapCell is the per-surah rollup displayed on the mastery heatmap.
// Score averages the level ranks (0..3) across the surah's recorded ranges.
type HeatmapCell struct {
	Surah         int     `json:"surah"`
	AyahsCovered  int     `json:"ayahs_covered"`
	DominantLevel string  `json:"dominant_level"`
	Score         float64 `json:"score"`
}

// HeatmapResponse wraps a student's heatmap cells ordered by surah.
type HeatmapResponse struct {
	StudentID uint          `json:"student_id"`
	Cells     []HeatmapCell `json:"cells"`
}

// NewMasteryRecordResponse converts a model into a DTO.
func NewMasteryRecordResponse(model models.MasteryRecord) MasteryRecordResponse {
	return MasteryRecordResponse{
		ID:        model.ID,
		StudentID: model.StudentID,
		Surah:     model.Surah,
		AyahFrom:  model.AyahFrom,
		AyahTo:    model.AyahTo,
		Level:     string(model.Level),
		UpdatedBy: model.UpdatedBy,
		UpdatedAt: model.UpdatedAt,
	}
}
