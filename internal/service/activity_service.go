package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripfolio/api/internal/domain"
	"github.com/tripfolio/api/internal/media"
	"github.com/tripfolio/api/internal/repository/ports"
)

var (
	ErrActivityValidation = errors.New("activity validation failed")
	ErrActivityNotFound   = errors.New("activity not found")
)

const (
	maxActivityNameLen       = 100
	defaultMaxAttachments    = 5
	defaultMaxAttachmentSize = int64(10 * 1024 * 1024)
)

var defaultAllowedAttachmentMIMEs = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
}

type ActivityServiceConfig struct {
	Bucket             string
	MaxAttachments     int
	MaxAttachmentBytes int64
	AllowedMIMETypes   []string
	ImageProcessor     media.Processor
	ImageMaxDimension  int
	SignedURLTTL       time.Duration
}

type AttachmentUpload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type ActivityInput struct {
	Name        string
	Description *string
	Date        string
	StartTime   *string
	EndTime     *string
	Address     *string
	URLs        []string

	Attachments          []AttachmentUpload
	RemoveAttachmentKeys []string
}

type ActivityService struct {
	trips   ports.TripRepository
	storage ports.ObjectStorage

	bucket            string
	maxAttachments    int
	maxBytes          int64
	allowedMIMEs      map[string]struct{}
	imageProcessor    media.Processor
	imageMaxDimension int
	signedURLTTL      time.Duration
	now               func() time.Time
}

func NewActivityService(trips ports.TripRepository, storage ports.ObjectStorage, cfg ActivityServiceConfig) *ActivityService {
	maxAttachments := cfg.MaxAttachments
	if maxAttachments <= 0 {
		maxAttachments = defaultMaxAttachments
	}
	maxBytes := cfg.MaxAttachmentBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxAttachmentSize
	}
	allowed := cfg.AllowedMIMETypes
	if len(allowed) == 0 {
		allowed = defaultAllowedAttachmentMIMEs
	}
	mimeSet := make(map[string]struct{}, len(allowed))
	for _, mt := range allowed {
		mimeSet[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	maxDimension := cfg.ImageMaxDimension
	if maxDimension <= 0 {
		maxDimension = media.DefaultMaxDimension
	}
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &ActivityService{
		trips:             trips,
		storage:           storage,
		bucket:            strings.TrimSpace(cfg.Bucket),
		maxAttachments:    maxAttachments,
		maxBytes:          maxBytes,
		allowedMIMEs:      mimeSet,
		imageProcessor:    cfg.ImageProcessor,
		imageMaxDimension: maxDimension,
		signedURLTTL:      ttl,
		now:               time.Now,
	}
}

func (s *ActivityService) CreateActivity(ctx context.Context, tripID string, input ActivityInput) (*domain.Trip, error) {
	activity, err := s.buildActivity(input)
	if err != nil {
		return nil, err
	}
	if err := s.validateAttachments(input.Attachments, 0); err != nil {
		return nil, err
	}

	trip, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	activity.ID = fmt.Sprintf("activity-%d", s.now().UnixMilli())

	stored, err := s.uploadAttachments(ctx, tripID, activity.ID, input.Attachments)
	if err != nil {
		return nil, err
	}
	activity.Attachments = stored

	trip.Activities = append(trip.Activities, *activity)
	if err := s.saveTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *ActivityService) UpdateActivity(ctx context.Context, tripID, activityID string, input ActivityInput) (*domain.Trip, error) {
	updated, err := s.buildActivity(input)
	if err != nil {
		return nil, err
	}

	trip, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	idx := trip.FindActivity(activityID)
	if idx < 0 {
		return nil, ErrActivityNotFound
	}
	current := &trip.Activities[idx]

	kept := make([]domain.Attachment, 0, len(current.Attachments))
	removing := make(map[string]bool, len(input.RemoveAttachmentKeys))
	for _, key := range input.RemoveAttachmentKeys {
		removing[key] = true
	}
	for _, att := range current.Attachments {
		if removing[att.ObjectKey] {
			if err := s.storage.Remove(ctx, s.bucket, att.ObjectKey); err != nil {
				log.Printf("update %s: remove attachment %s: %v", activityID, att.ObjectKey, err)
			}
			continue
		}
		kept = append(kept, att)
	}

	if err := s.validateAttachments(input.Attachments, len(kept)); err != nil {
		return nil, err
	}
	added, err := s.uploadAttachments(ctx, tripID, activityID, input.Attachments)
	if err != nil {
		return nil, err
	}

	updated.ID = activityID
	updated.Attachments = append(kept, added...)
	trip.Activities[idx] = *updated

	if err := s.saveTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *ActivityService) DeleteActivity(ctx context.Context, tripID, activityID string) (*domain.Trip, error) {
	trip, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	idx := trip.FindActivity(activityID)
	if idx < 0 {
		return nil, ErrActivityNotFound
	}

	for _, att := range trip.Activities[idx].Attachments {
		if err := s.storage.Remove(ctx, s.bucket, att.ObjectKey); err != nil {
			log.Printf("delete %s: remove attachment %s: %v", activityID, att.ObjectKey, err)
		}
	}

	trip.Activities = append(trip.Activities[:idx], trip.Activities[idx+1:]...)
	if err := s.saveTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// AttachmentURL returns a short-lived signed URL for one stored attachment.
func (s *ActivityService) AttachmentURL(ctx context.Context, tripID, objectKey string) (string, error) {
	trip, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return "", err
	}
	for i := range trip.Activities {
		for _, att := range trip.Activities[i].Attachments {
			if att.ObjectKey == objectKey {
				return s.storage.PresignedGet(ctx, s.bucket, objectKey, s.signedURLTTL)
			}
		}
	}
	for i := range trip.Flights {
		for _, p := range trip.Flights[i].Passengers {
			if p.PDFKey != nil && *p.PDFKey == objectKey {
				return s.storage.PresignedGet(ctx, s.bucket, objectKey, s.signedURLTTL)
			}
		}
	}
	return "", ErrActivityNotFound
}

// buildActivity validates and normalizes the user-supplied fields. All
// validation happens before any mutation or upload.
func (s *ActivityService) buildActivity(input ActivityInput) (*domain.Activity, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrActivityValidation)
	}
	if len([]rune(name)) > maxActivityNameLen {
		return nil, fmt.Errorf("%w: name exceeds %d characters", ErrActivityValidation, maxActivityNameLen)
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrActivityValidation)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrActivityValidation)
	}

	urls := make([]string, 0, len(input.URLs))
	for _, u := range input.URLs {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}

	return &domain.Activity{
		Name:        name,
		Description: normalizeString(input.Description),
		Date:        date,
		StartTime:   normalizeString(input.StartTime),
		EndTime:     normalizeString(input.EndTime),
		Address:     normalizeString(input.Address),
		URLs:        urls,
	}, nil
}

func (s *ActivityService) validateAttachments(uploads []AttachmentUpload, existing int) error {
	if existing+len(uploads) > s.maxAttachments {
		return fmt.Errorf("%w: maximum %d attachments allowed", ErrActivityValidation, s.maxAttachments)
	}
	for i, upload := range uploads {
		if upload.Size <= 0 {
			return fmt.Errorf("%w: attachment %d is empty", ErrActivityValidation, i+1)
		}
		if upload.Size > s.maxBytes {
			return fmt.Errorf("%w: attachment %d exceeds size limit (%d bytes)", ErrActivityValidation, i+1, s.maxBytes)
		}
		contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
		if _, ok := s.allowedMIMEs[contentType]; !ok {
			return fmt.Errorf("%w: attachment %d has unsupported content type %s", ErrActivityValidation, i+1, upload.ContentType)
		}
	}
	return nil
}

func (s *ActivityService) uploadAttachments(ctx context.Context, tripID, activityID string, uploads []AttachmentUpload) ([]domain.Attachment, error) {
	stored := make([]domain.Attachment, 0, len(uploads))
	for _, upload := range uploads {
		reader, size, contentType, err := s.prepareAttachment(ctx, upload)
		if err != nil {
			return nil, err
		}

		ext := attachmentExtension(contentType, upload.FileName)
		key := fmt.Sprintf("trips/%s/%s/%s%s", tripID, activityID, uuid.NewString(), ext)

		if _, err := s.storage.Upload(ctx, s.bucket, key, contentType, reader, size); err != nil {
			return nil, err
		}
		stored = append(stored, domain.Attachment{
			ObjectKey:   key,
			FileName:    upload.FileName,
			ContentType: contentType,
			Size:        size,
		})
	}
	return stored, nil
}

// prepareAttachment runs image attachments through the processor; PDFs and
// anything the processor cannot improve pass through unchanged.
func (s *ActivityService) prepareAttachment(ctx context.Context, upload AttachmentUpload) (reader io.Reader, size int64, contentType string, err error) {
	contentType = strings.ToLower(strings.TrimSpace(upload.ContentType))
	if s.imageProcessor == nil || !media.IsImage(contentType) {
		return upload.Reader, upload.Size, contentType, nil
	}
	result, err := s.imageProcessor.Process(ctx, media.Upload{
		Reader:      upload.Reader,
		Size:        upload.Size,
		FileName:    upload.FileName,
		ContentType: contentType,
	}, s.imageMaxDimension)
	if err != nil {
		return nil, 0, "", err
	}
	return bytes.NewReader(result.Bytes), int64(len(result.Bytes)), result.ContentType, nil
}

func (s *ActivityService) loadTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (s *ActivityService) saveTrip(ctx context.Context, trip *domain.Trip) error {
	if err := s.trips.Save(ctx, trip); err != nil {
		if isVersionConflict(err) {
			return ErrTripConflict
		}
		return err
	}
	return nil
}

func normalizeString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func attachmentExtension(contentType, fileName string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if fileName != "" {
		if ext := strings.ToLower(strings.TrimSpace(filepath.Ext(fileName))); ext != "" {
			return ext
		}
	}
	return ".bin"
}
