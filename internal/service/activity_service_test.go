package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tripfolio/api/internal/domain"
	"github.com/tripfolio/api/internal/media"
)

func seedActivityTrip(repo *memoryTripRepo) string {
	repo.seed(&domain.Trip{
		ID:        "2026-06-10-rome",
		StartDate: "2026-06-10",
		EndDate:   "2026-06-14",
	})
	return "2026-06-10-rome"
}

func pdfUpload(name, content string) AttachmentUpload {
	return AttachmentUpload{
		Reader:      bytes.NewReader([]byte(content)),
		Size:        int64(len(content)),
		FileName:    name,
		ContentType: "application/pdf",
	}
}

func TestActivityService_CreateActivity(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	storage := newMemoryStorage()
	tripID := seedActivityTrip(repo)
	svc := NewActivityService(repo, storage, ActivityServiceConfig{Bucket: "tripfolio-trips"})

	trip, err := svc.CreateActivity(ctx, tripID, ActivityInput{
		Name:        "  Colosseum tour  ",
		Date:        "2026-06-11",
		StartTime:   strPtr("09:30"),
		URLs:        []string{" https://example.com/tickets ", ""},
		Attachments: []AttachmentUpload{pdfUpload("tickets.pdf", "pdf-bytes")},
	})
	if err != nil {
		t.Fatalf("CreateActivity returned error: %v", err)
	}

	if len(trip.Activities) != 1 {
		t.Fatalf("expected one activity, got %d", len(trip.Activities))
	}
	activity := trip.Activities[0]
	if !strings.HasPrefix(activity.ID, "activity-") {
		t.Fatalf("unexpected activity id %q", activity.ID)
	}
	if activity.Name != "Colosseum tour" {
		t.Fatalf("expected trimmed name, got %q", activity.Name)
	}
	if len(activity.URLs) != 1 || activity.URLs[0] != "https://example.com/tickets" {
		t.Fatalf("expected blank urls dropped and values trimmed, got %v", activity.URLs)
	}
	if len(activity.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(activity.Attachments))
	}
	att := activity.Attachments[0]
	wantPrefix := "trips/" + tripID + "/" + activity.ID + "/"
	if !strings.HasPrefix(att.ObjectKey, wantPrefix) {
		t.Fatalf("expected key under %q, got %q", wantPrefix, att.ObjectKey)
	}
	if att.FileName != "tickets.pdf" || att.Size != int64(len("pdf-bytes")) {
		t.Fatalf("unexpected attachment metadata %+v", att)
	}
	if storage.uploadCount != 1 {
		t.Fatalf("expected one upload, got %d", storage.uploadCount)
	}

	stored, _ := repo.GetByID(ctx, tripID)
	if len(stored.Activities) != 1 {
		t.Fatal("activity was not persisted")
	}
}

func TestActivityService_CreateActivity_ValidationErrors(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	tripID := seedActivityTrip(repo)
	svc := NewActivityService(repo, newMemoryStorage(), ActivityServiceConfig{Bucket: "tripfolio-trips"})

	cases := []struct {
		name  string
		input ActivityInput
	}{
		{"missing name", ActivityInput{Date: "2026-06-11"}},
		{"name too long", ActivityInput{Name: strings.Repeat("x", 101), Date: "2026-06-11"}},
		{"missing date", ActivityInput{Name: "Tour"}},
		{"malformed date", ActivityInput{Name: "Tour", Date: "11/06/2026"}},
		{"unsupported attachment type", ActivityInput{
			Name: "Tour", Date: "2026-06-11",
			Attachments: []AttachmentUpload{{
				Reader: bytes.NewReader([]byte("gif")), Size: 3,
				FileName: "anim.gif", ContentType: "image/gif",
			}},
		}},
		{"empty attachment", ActivityInput{
			Name: "Tour", Date: "2026-06-11",
			Attachments: []AttachmentUpload{{
				Reader: bytes.NewReader(nil), Size: 0,
				FileName: "empty.pdf", ContentType: "application/pdf",
			}},
		}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateActivity(ctx, tripID, tc.input); !errors.Is(err, ErrActivityValidation) {
			t.Fatalf("%s: expected ErrActivityValidation, got %v", tc.name, err)
		}
	}

	// A 100-rune name is still valid.
	if _, err := svc.CreateActivity(ctx, tripID, ActivityInput{Name: strings.Repeat("à", 100), Date: "2026-06-11"}); err != nil {
		t.Fatalf("100-rune name should pass, got %v", err)
	}
}

func TestActivityService_AttachmentLimits(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	tripID := seedActivityTrip(repo)
	svc := NewActivityService(repo, newMemoryStorage(), ActivityServiceConfig{
		Bucket:             "tripfolio-trips",
		MaxAttachments:     2,
		MaxAttachmentBytes: 10,
	})

	uploads := []AttachmentUpload{
		pdfUpload("a.pdf", "123"),
		pdfUpload("b.pdf", "123"),
		pdfUpload("c.pdf", "123"),
	}
	if _, err := svc.CreateActivity(ctx, tripID, ActivityInput{Name: "Tour", Date: "2026-06-11", Attachments: uploads}); !errors.Is(err, ErrActivityValidation) {
		t.Fatalf("expected ErrActivityValidation for too many attachments, got %v", err)
	}

	oversized := []AttachmentUpload{pdfUpload("big.pdf", "12345678901")}
	if _, err := svc.CreateActivity(ctx, tripID, ActivityInput{Name: "Tour", Date: "2026-06-11", Attachments: oversized}); !errors.Is(err, ErrActivityValidation) {
		t.Fatalf("expected ErrActivityValidation for oversized attachment, got %v", err)
	}
}

func TestActivityService_CreateActivity_ProcessesImages(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	storage := newMemoryStorage()
	tripID := seedActivityTrip(repo)
	processor := &stubImageProcessor{output: []byte("processed-image")}
	svc := NewActivityService(repo, storage, ActivityServiceConfig{
		Bucket:         "tripfolio-trips",
		ImageProcessor: processor,
	})

	trip, err := svc.CreateActivity(ctx, tripID, ActivityInput{
		Name: "Tour",
		Date: "2026-06-11",
		Attachments: []AttachmentUpload{{
			Reader:      bytes.NewReader([]byte("original-image")),
			Size:        int64(len("original-image")),
			FileName:    "photo.jpg",
			ContentType: "image/jpeg",
		}},
	})
	if err != nil {
		t.Fatalf("CreateActivity returned error: %v", err)
	}
	if processor.calls != 1 {
		t.Fatalf("expected processor to be invoked once, got %d", processor.calls)
	}
	key := trip.Activities[0].Attachments[0].ObjectKey
	if string(storage.objects[key]) != "processed-image" {
		t.Fatalf("expected processed bytes in storage, got %q", storage.objects[key])
	}
	if trip.Activities[0].Attachments[0].Size != int64(len("processed-image")) {
		t.Fatalf("attachment size must reflect processed bytes, got %d", trip.Activities[0].Attachments[0].Size)
	}
}

func TestActivityService_UpdateActivity(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	storage := newMemoryStorage()
	tripID := seedActivityTrip(repo)
	svc := NewActivityService(repo, storage, ActivityServiceConfig{Bucket: "tripfolio-trips"})

	trip, err := svc.CreateActivity(ctx, tripID, ActivityInput{
		Name: "Tour",
		Date: "2026-06-11",
		Attachments: []AttachmentUpload{
			pdfUpload("keep.pdf", "keep"),
			pdfUpload("drop.pdf", "drop"),
		},
	})
	if err != nil {
		t.Fatalf("CreateActivity returned error: %v", err)
	}
	activityID := trip.Activities[0].ID
	var keepKey, dropKey string
	for _, att := range trip.Activities[0].Attachments {
		switch att.FileName {
		case "keep.pdf":
			keepKey = att.ObjectKey
		case "drop.pdf":
			dropKey = att.ObjectKey
		}
	}

	updated, err := svc.UpdateActivity(ctx, tripID, activityID, ActivityInput{
		Name:                 "Evening tour",
		Date:                 "2026-06-12",
		Attachments:          []AttachmentUpload{pdfUpload("new.pdf", "new")},
		RemoveAttachmentKeys: []string{dropKey},
	})
	if err != nil {
		t.Fatalf("UpdateActivity returned error: %v", err)
	}

	activity := updated.Activities[0]
	if activity.ID != activityID {
		t.Fatalf("activity id must be stable across updates, got %q", activity.ID)
	}
	if activity.Name != "Evening tour" || activity.Date != "2026-06-12" {
		t.Fatalf("fields not updated: %+v", activity)
	}
	if len(activity.Attachments) != 2 {
		t.Fatalf("expected kept + added attachments, got %d", len(activity.Attachments))
	}
	if activity.Attachments[0].ObjectKey != keepKey {
		t.Fatalf("expected kept attachment first, got %q", activity.Attachments[0].ObjectKey)
	}
	if len(storage.removed) != 1 || storage.removed[0] != dropKey {
		t.Fatalf("expected %q removed from storage, got %v", dropKey, storage.removed)
	}

	if _, err := svc.UpdateActivity(ctx, tripID, "activity-999", ActivityInput{Name: "X", Date: "2026-06-11"}); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestActivityService_DeleteActivity(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	storage := newMemoryStorage()
	tripID := seedActivityTrip(repo)
	svc := NewActivityService(repo, storage, ActivityServiceConfig{Bucket: "tripfolio-trips"})

	trip, err := svc.CreateActivity(ctx, tripID, ActivityInput{
		Name:        "Tour",
		Date:        "2026-06-11",
		Attachments: []AttachmentUpload{pdfUpload("tickets.pdf", "pdf")},
	})
	if err != nil {
		t.Fatalf("CreateActivity returned error: %v", err)
	}
	activityID := trip.Activities[0].ID
	key := trip.Activities[0].Attachments[0].ObjectKey

	updated, err := svc.DeleteActivity(ctx, tripID, activityID)
	if err != nil {
		t.Fatalf("DeleteActivity returned error: %v", err)
	}
	if len(updated.Activities) != 0 {
		t.Fatalf("expected no activities left, got %d", len(updated.Activities))
	}
	if len(storage.removed) != 1 || storage.removed[0] != key {
		t.Fatalf("expected attachment %q removed, got %v", key, storage.removed)
	}

	if _, err := svc.DeleteActivity(ctx, tripID, activityID); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound on second delete, got %v", err)
	}
}

func TestActivityService_AttachmentURL(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	storage := newMemoryStorage()
	repo.seed(&domain.Trip{
		ID: "2026-06-10-rome",
		Flights: []domain.Flight{{
			ID: "flight-1",
			Passengers: []domain.Passenger{
				{Name: "Mario Rossi", PDFKey: strPtr("trips/2026-06-10-rome/flight-1/pass.pdf")},
			},
		}},
		Activities: []domain.Activity{{
			ID: "activity-1",
			Attachments: []domain.Attachment{
				{ObjectKey: "trips/2026-06-10-rome/activity-1/tickets.pdf"},
			},
		}},
	})
	svc := NewActivityService(repo, storage, ActivityServiceConfig{Bucket: "tripfolio-trips"})

	url, err := svc.AttachmentURL(ctx, "2026-06-10-rome", "trips/2026-06-10-rome/activity-1/tickets.pdf")
	if err != nil {
		t.Fatalf("AttachmentURL returned error: %v", err)
	}
	if !strings.Contains(url, "tickets.pdf") {
		t.Fatalf("unexpected url %q", url)
	}

	url, err = svc.AttachmentURL(ctx, "2026-06-10-rome", "trips/2026-06-10-rome/flight-1/pass.pdf")
	if err != nil {
		t.Fatalf("AttachmentURL for passenger document returned error: %v", err)
	}
	if !strings.Contains(url, "pass.pdf") {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := svc.AttachmentURL(ctx, "2026-06-10-rome", "trips/other/unknown.pdf"); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound for unknown key, got %v", err)
	}
}

// --- Test doubles ---

type stubImageProcessor struct {
	output []byte
	calls  int
}

func (s *stubImageProcessor) Process(_ context.Context, upload media.Upload, _ int) (*media.Result, error) {
	s.calls++
	return &media.Result{Bytes: s.output, ContentType: upload.ContentType, Resized: true}, nil
}

var _ media.Processor = (*stubImageProcessor)(nil)
