package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/repository"
)

// ErrInvalidState indicates the submission was attempted outside the viewed
// status.
var ErrInvalidState = errors.New("assignment is not in viewed state")

// ErrSubmissionNotFound indicates no active submission exists.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrUnsupportedFileType indicates an attachment with a MIME type outside
// the allow list.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService orchestrates submission workflows. A submission and the
// viewed -> submitted transition are one logical operation.
type SubmissionService interface {
	Submit(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	GetActive(ctx context.Context, schoolID, assignmentID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	notifier    TransitionNotifier
	validator   *validator.Validate
	uploader    FileUploader
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, notifier TransitionNotifier, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		notifier:    notifier,
		validator:   validate,
		uploader:    uploader,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, schoolID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if actor.Role != models.RoleStudent || actor.ID != assignment.StudentID {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	if assignment.Status != models.StatusViewed {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: status is %s", ErrInvalidState, assignment.Status)
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, file := range files {
		attachment, err := s.uploadAttachment(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		attachments = append(attachments, attachment)
	}

	now := s.now()
	from := assignment.Status
	assignment.Status = models.StatusSubmitted
	assignment.Late = assignment.Late || assignment.IsPastDue(now)
	assignment.UpdatedAt = now

	submission := models.Submission{
		SchoolID:     schoolID,
		AssignmentID: assignment.ID,
		StudentID:    actor.ID,
		Text:         strings.TrimSpace(s.sanitizer.Sanitize(payload.Text)),
		Attachments:  datatypes.NewJSONSlice(attachments),
	}

	event := models.TransitionEvent{
		SchoolID:     schoolID,
		AssignmentID: assignment.ID,
		EventType:    models.TransitionEventType(models.StatusSubmitted),
		FromStatus:   &from,
		ToStatus:     models.StatusSubmitted,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Metadata:     datatypes.JSONMap{"late": assignment.Late},
	}

	if err := s.submissions.CreateWithTransition(ctx, &submission, &assignment, from, &event); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return dto.SubmissionResponse{}, ErrConcurrencyConflict
		}
		return dto.SubmissionResponse{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.TransitionAccepted(ctx, assignment, event); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to publish transition notice")
		}
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Bool("late", assignment.Late).
		Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) GetActive(ctx context.Context, schoolID, assignmentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetActive(ctx, schoolID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) uploadAttachment(ctx context.Context, file *multipart.FileHeader) (models.Attachment, error) {
	mime, err := detectFileType(file)
	if err != nil {
		return models.Attachment{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return models.Attachment{
		URL:      url,
		MimeType: mime,
		FileName: file.Filename,
		Size:     file.Size,
	}, nil
}

func detectFileType(file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "audio/mpeg", "audio/ogg", "audio/wav", "image/jpeg", "image/png", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return mime.String(), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
