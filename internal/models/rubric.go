package models

import "time"

// Rubric names an ordered set of weighted grading criteria. Once any grade
// references a rubric its criteria set is frozen; re-attachment against
// existing grades is rejected at the service layer.
type Rubric struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	SchoolID    uint        `gorm:"not null;index" json:"school_id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Criteria    []Criterion `gorm:"constraint:OnDelete:CASCADE" json:"criteria"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Criterion is one weighted, bounded-score dimension within a rubric.
// Weights across a rubric sum to 100.
type Criterion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RubricID    uint      `gorm:"not null;index" json:"rubric_id"`
	Position    int       `gorm:"not null" json:"position"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Weight      float64   `gorm:"not null" json:"weight"`
	MaxScore    float64   `gorm:"not null" json:"max_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// WeightSum totals the criterion weights of the rubric.
func (r Rubric) WeightSum() float64 {
	var sum float64
	for _, criterion := range r.Criteria {
		sum += criterion.Weight
	}
	return sum
}
