package dto

import (
	"time"

	"github.com/quranakh/quranakh-api/internal/models"
)

// SubmissionCreateRequest describes the payload for submitting work. Files
// arrive as multipart attachments alongside this form payload.
type SubmissionCreateRequest struct {
	Text string `form:"text" json:"text" validate:"required,min=1"`
}

// AttachmentResponse serializes one uploaded attachment descriptor.
type AttachmentResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// SubmissionResponse is the serialized representation of a submission.
type SubmissionResponse struct {
	ID           uint                 `json:"id"`
	AssignmentID uint                 `json:"assignment_id"`
	StudentID    uint                 `json:"student_id"`
	Text         string               `json:"text"`
	Attachments  []AttachmentResponse `json:"attachments"`
	Superseded   bool                 `json:"superseded"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	attachments := make([]AttachmentResponse, 0, len(model.Attachments))
	for _, attachment := range model.Attachments {
		attachments = append(attachments, AttachmentResponse{
			URL:      attachment.URL,
			MimeType: attachment.MimeType,
			FileName: attachment.FileName,
			Size:     attachment.Size,
		})
	}

	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Text:         model.Text,
		Attachments:  attachments,
		Superseded:   model.Superseded,
		CreatedAt:    model.CreatedAt,
	}
}
