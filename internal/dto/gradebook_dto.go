package dto

// GradebookEntry is the derived per-assignment aggregation of a student's
// grades against the attached rubric. Weighted score is
// sum(score/max_score * weight) across graded criteria; completion is
// graded/total * 100. Both round to one decimal.
type GradebookEntry struct {
	AssignmentID    uint    `json:"assignment_id"`
	AssignmentTitle string  `json:"assignment_title"`
	RubricID        uint    `json:"rubric_id"`
	RubricName      string  `json:"rubric_name"`
	GradedCriteria  int     `json:"graded_criteria"`
	TotalCriteria   int     `json:"total_criteria"`
	Completion      float64 `json:"completion"`
	WeightedScore   float64 `json:"weighted_score"`
}

// GradebookResponse wraps a student's gradebook entries.
type GradebookResponse struct {
	StudentID uint             `json:"student_id"`
	Entries   []GradebookEntry `json:"entries"`
}
