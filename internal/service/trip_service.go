package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripfolio/api/internal/booking"
	"github.com/tripfolio/api/internal/domain"
	"github.com/tripfolio/api/internal/extract"
	"github.com/tripfolio/api/internal/repository/ports"
	"github.com/tripfolio/api/internal/timeline"
)

// DocumentUpload is one uploaded source document (boarding pass, hotel
// confirmation) before extraction.
type DocumentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
	TypeHint    extract.DocumentHint
}

// BookingResult reports what AddBooking changed. SkippedPassengers counts
// duplicates recognized during compaction and merge; it is informational.
type BookingResult struct {
	AddedFlights      []domain.Flight `json:"added_flights"`
	AddedHotels       []domain.Hotel  `json:"added_hotels"`
	SkippedPassengers int             `json:"skipped_passengers"`
}

type TripServiceConfig struct {
	Bucket string
}

type TripService struct {
	trips     ports.TripRepository
	storage   ports.ObjectStorage
	extractor extract.Extractor

	bucket string
	now    func() time.Time
}

func NewTripService(trips ports.TripRepository, storage ports.ObjectStorage, extractor extract.Extractor, cfg TripServiceConfig) *TripService {
	return &TripService{
		trips:     trips,
		storage:   storage,
		extractor: extractor,
		bucket:    strings.TrimSpace(cfg.Bucket),
		now:       time.Now,
	}
}

// CreateTrip extracts every uploaded document, compacts the batch, builds a
// fresh trip aggregate and persists it. Single-document extraction failures
// are logged and dropped; the call fails only when nothing usable remains.
func (s *TripService) CreateTrip(ctx context.Context, docs []DocumentUpload) (*domain.Trip, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents uploaded", ErrTripValidation)
	}

	records := s.extractBatch(ctx, docs)
	compacted, skipped := booking.Compact(records)
	if !hasUsableRecords(compacted) {
		return nil, ErrNoUsableDocuments
	}

	trip := &domain.Trip{
		Flights:    []domain.Flight{},
		Hotels:     []domain.Hotel{},
		Activities: []domain.Activity{},
	}
	result := booking.Merge(trip, compacted)
	if skipped+result.SkippedPassengers > 0 {
		log.Printf("create trip: %d duplicate passenger record(s) absorbed", skipped+result.SkippedPassengers)
	}

	trip.Destination = deriveDestination(trip)
	trip.ID = buildTripID(trip.StartDate, trip.Destination, s.now)
	trip.Title = map[string]string{
		"en": "Trip to " + trip.Destination,
		"it": "Viaggio a " + trip.Destination,
	}

	if err := s.attachFlightDocuments(ctx, trip, docs); err != nil {
		return nil, err
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		// Same destination and start date as an existing trip: suffix the slug.
		base := trip.ID
		for n := 2; ; n++ {
			trip.ID = fmt.Sprintf("%s-%d", base, n)
			err = s.trips.Create(ctx, trip)
			if err == nil || !isUniqueViolation(err) {
				break
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return trip, nil
}

// AddBooking folds newly uploaded documents into an existing trip. The merge
// engine decides per record between duplicate, new passenger on an existing
// flight, and wholly new entry.
func (s *TripService) AddBooking(ctx context.Context, tripID string, docs []DocumentUpload) (*BookingResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents uploaded", ErrTripValidation)
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	records := s.extractBatch(ctx, docs)
	compacted, compactSkipped := booking.Compact(records)
	if !hasUsableRecords(compacted) {
		return nil, ErrNoUsableDocuments
	}

	result := booking.Merge(trip, compacted)

	// Source documents for merged passengers must be attached before the
	// updated aggregate counts as saved.
	if err := s.attachFlightDocuments(ctx, trip, docs); err != nil {
		return nil, err
	}

	if err := s.trips.Save(ctx, trip); err != nil {
		if isVersionConflict(err) {
			return nil, ErrTripConflict
		}
		return nil, err
	}

	return &BookingResult{
		AddedFlights:      result.AddedFlights,
		AddedHotels:       result.AddedHotels,
		SkippedPassengers: result.SkippedPassengers + compactSkipped,
	}, nil
}

func (s *TripService) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (s *TripService) ListTrips(ctx context.Context) ([]domain.TripSummary, error) {
	return s.trips.List(ctx)
}

func (s *TripService) RenameTrip(ctx context.Context, id string, title map[string]string) error {
	cleaned := make(map[string]string, len(title))
	for lang, value := range title {
		value = strings.TrimSpace(value)
		if value != "" {
			cleaned[strings.TrimSpace(lang)] = value
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("%w: title must not be empty", ErrTripValidation)
	}

	if err := s.trips.Rename(ctx, id, cleaned); err != nil {
		if isNotFound(err) {
			return ErrTripNotFound
		}
		return err
	}
	return nil
}

// DeleteTrip removes stored attachments first, then the aggregate itself.
func (s *TripService) DeleteTrip(ctx context.Context, id string) error {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrTripNotFound
		}
		return err
	}

	for _, key := range attachmentKeys(trip) {
		if err := s.storage.Remove(ctx, s.bucket, key); err != nil {
			log.Printf("delete trip %s: remove attachment %s: %v", id, key, err)
		}
	}

	if err := s.trips.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrTripNotFound
		}
		return err
	}
	return nil
}

// Timeline builds the trip's day-by-day projection and applies the caller's
// filter in one step. Nil categories means "everything present".
func (s *TripService) Timeline(ctx context.Context, tripID string, categories []string, query string) (timeline.Timeline, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return timeline.Timeline{}, err
	}
	return FilteredTimeline(trip, categories, query), nil
}

// FilteredTimeline is the pure projection used by both the owner-facing and
// the shared read-only endpoints.
func FilteredTimeline(trip *domain.Trip, categories []string, query string) timeline.Timeline {
	built := timeline.Build(trip)
	state := timeline.NewFilterState(built)
	if categories != nil {
		active := make(map[string]bool, len(categories))
		for _, c := range categories {
			c = strings.TrimSpace(strings.ToLower(c))
			if c != "" {
				active[c] = true
			}
		}
		state.Categories = active
	}
	state.Query = query
	return timeline.Apply(built, state)
}

// extractBatch runs extraction concurrently, one goroutine per document. A
// failed document contributes nothing; its error is logged and the rest of
// the batch proceeds.
func (s *TripService) extractBatch(ctx context.Context, docs []DocumentUpload) []booking.Record {
	results := make([]*extract.Result, len(docs))

	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(idx int, doc DocumentUpload) {
			defer wg.Done()

			text, err := extract.DocumentText(doc.FileName, doc.ContentType, doc.Data)
			if err != nil {
				log.Printf("extract %q: %v", doc.FileName, err)
				return
			}
			hint := doc.TypeHint
			if hint == "" || hint == extract.HintAuto {
				hint = extract.InferHint(doc.FileName, text)
			}
			res, err := s.extractor.Extract(ctx, text, hint)
			if err != nil {
				log.Printf("extract %q: %v", doc.FileName, err)
				return
			}
			results[idx] = res
		}(i, docs[i])
	}
	wg.Wait()

	var records []booking.Record
	for i, res := range results {
		if res == nil || res.Empty() {
			continue
		}
		idx := i
		for _, f := range res.Flights {
			f = booking.ApplyBookingInfo(f, res.Booking)
			normalized := booking.NormalizeFlight(f, res.Passenger, &idx)
			records = append(records, booking.Record{Flight: &normalized, PDFIndex: &idx})
		}
		for _, h := range res.Hotels {
			normalized := booking.NormalizeHotel(h)
			records = append(records, booking.Record{Hotel: &normalized, PDFIndex: &idx})
		}
	}
	return records
}

// attachFlightDocuments uploads the source document behind every passenger
// that still points into the upload batch, then clears the upload markers.
func (s *TripService) attachFlightDocuments(ctx context.Context, trip *domain.Trip, docs []DocumentUpload) error {
	for fi := range trip.Flights {
		flight := &trip.Flights[fi]
		for pi := range flight.Passengers {
			p := &flight.Passengers[pi]
			if p.PDFIndex == nil || p.PDFKey != nil {
				p.PDFIndex = nil
				continue
			}
			idx := *p.PDFIndex
			p.PDFIndex = nil
			if idx < 0 || idx >= len(docs) {
				continue
			}
			doc := docs[idx]

			ext := strings.ToLower(filepath.Ext(doc.FileName))
			if ext == "" {
				ext = ".pdf"
			}
			key := fmt.Sprintf("trips/%s/%s/%s%s", trip.ID, flight.ID, uuid.NewString(), ext)
			contentType := doc.ContentType
			if contentType == "" {
				contentType = "application/pdf"
			}
			if _, err := s.storage.Upload(ctx, s.bucket, key, contentType, bytes.NewReader(doc.Data), int64(len(doc.Data))); err != nil {
				return fmt.Errorf("attach document for %s: %w", flight.ID, err)
			}
			p.PDFKey = &key
		}
		flight.NeedsPDFUpload = false
	}
	return nil
}

func hasUsableRecords(records []booking.Record) bool {
	for _, rec := range records {
		if rec.Flight != nil || rec.Hotel != nil {
			return true
		}
	}
	return false
}

// deriveDestination picks a display destination: the first flight's arrival
// city, else the first hotel's name.
func deriveDestination(trip *domain.Trip) string {
	if len(trip.Flights) > 0 {
		if city := strings.TrimSpace(trip.Flights[0].Arrival.City); city != "" {
			return city
		}
		if code := strings.TrimSpace(trip.Flights[0].Arrival.Code); code != "" {
			return code
		}
	}
	if len(trip.Hotels) > 0 {
		if name := strings.TrimSpace(trip.Hotels[0].Name); name != "" {
			return name
		}
	}
	return "Trip"
}

func buildTripID(startDate, destination string, now func() time.Time) string {
	date := strings.TrimSpace(startDate)
	if date == "" {
		date = now().Format("2006-01-02")
	}
	return date + "-" + slugify(destination)
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "trip"
	}
	return out
}

func attachmentKeys(trip *domain.Trip) []string {
	var keys []string
	for i := range trip.Flights {
		for _, p := range trip.Flights[i].Passengers {
			if p.PDFKey != nil && *p.PDFKey != "" {
				keys = append(keys, *p.PDFKey)
			}
		}
	}
	for i := range trip.Activities {
		for _, a := range trip.Activities[i].Attachments {
			if a.ObjectKey != "" {
				keys = append(keys, a.ObjectKey)
			}
		}
	}
	return keys
}
