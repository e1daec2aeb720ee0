package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/internal/interface/calendar"
	"villa-portal-service/pkg/clock"
	"villa-portal-service/pkg/ical"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"
	"villa-portal-service/pkg/utils"
)

const (
	exportProductID      = "-//villa-portal//reservations//EN"
	noCalendarURLMessage = "No calendar URL configured for this property"
)

// FeedFetcher downloads a calendar feed body
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CalendarService serves the external booking feed, correlated with stored reservations
type CalendarService struct {
	propertyRepo    repository.PropertyRepository
	reservationRepo repository.ReservationRepository
	cache           repository.FeedCacheRepository
	fetcher         FeedFetcher
	parser          *ical.Parser
	clock           clock.Clock
	location        *time.Location
	cacheTTL        time.Duration
	propertySlug    string
	metrics         *metrics.Metrics
	logger          logger.Logger
}

// NewCalendarService creates a new calendar service. cache may be nil.
func NewCalendarService(
	propertyRepo repository.PropertyRepository,
	reservationRepo repository.ReservationRepository,
	cache repository.FeedCacheRepository,
	fetcher FeedFetcher,
	clock clock.Clock,
	location *time.Location,
	cacheTTL time.Duration,
	propertySlug string,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *CalendarService {
	return &CalendarService{
		propertyRepo:    propertyRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
		fetcher:         fetcher,
		parser:          ical.NewParser(clock),
		clock:           clock,
		location:        location,
		cacheTTL:        cacheTTL,
		propertySlug:    propertySlug,
		metrics:         metrics,
		logger:          logger,
	}
}

// GetFeed returns today's and future booking blocks sorted by start date.
// Fetch failures are returned as *calendar.FetchError and no events.
func (s *CalendarService) GetFeed(ctx context.Context) (*entity.CalendarFeed, error) {
	feedURL, err := s.calendarURL(ctx)
	if err != nil {
		return nil, err
	}
	if feedURL == "" {
		return &entity.CalendarFeed{
			Events:  []entity.CalendarEvent{},
			Message: noCalendarURLMessage,
		}, nil
	}

	cached, err := s.load(ctx, feedURL, false)
	if err != nil {
		return nil, err
	}

	today := utils.FormatCalendarDate(utils.Today(s.clock, s.location))
	events := ical.Upcoming(s.wellFormed(s.parser.Parse(cached.Body)), today)
	s.metrics.FeedEvents.Set(float64(len(events)))

	stripped := calendar.StripQuery(feedURL)
	lastSync := cached.FetchedAt
	return &entity.CalendarFeed{
		Events:      s.correlate(ctx, events),
		TotalEvents: len(events),
		LastSync:    &lastSync,
		CalendarURL: &stripped,
	}, nil
}

// Warm refreshes the cached feed body regardless of its age
func (s *CalendarService) Warm(ctx context.Context) error {
	feedURL, err := s.calendarURL(ctx)
	if err != nil {
		return err
	}
	if feedURL == "" {
		return nil
	}
	_, err = s.load(ctx, feedURL, true)
	return err
}

// ExportICS renders active reservations as an iCal feed
func (s *CalendarService) ExportICS(ctx context.Context) (string, error) {
	reservations, err := s.reservationRepo.FindByStatus(ctx, []entity.ReservationStatus{
		entity.ReservationPending,
		entity.ReservationUpcoming,
		entity.ReservationCurrent,
	}, 0)
	if err != nil {
		return "", fmt.Errorf("failed to load reservations for export: %w", err)
	}
	return ical.Export(exportProductID, reservations, s.clock.Now().UTC()), nil
}

func (s *CalendarService) calendarURL(ctx context.Context) (string, error) {
	property, err := s.propertyRepo.FindBySlug(ctx, s.propertySlug)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load property: %w", err)
	}
	return property.CalendarURL, nil
}

// load returns the feed body from cache or network. Cache errors degrade to a fetch.
func (s *CalendarService) load(ctx context.Context, feedURL string, refresh bool) (*entity.CachedFeed, error) {
	if s.cache != nil && !refresh {
		cached, err := s.cache.Get(ctx, feedURL)
		if err != nil {
			s.logger.Warn("Feed cache read failed", "url", calendar.RedactURL(feedURL), "error", err)
		}
		if cached != nil {
			s.metrics.FeedFetches.WithLabelValues("cache_hit").Inc()
			return cached, nil
		}
	}

	body, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		s.metrics.FeedFetches.WithLabelValues("error").Inc()
		s.metrics.ErrorsCount.WithLabelValues("calendar_fetch").Inc()
		return nil, err
	}
	s.metrics.FeedFetches.WithLabelValues("fetched").Inc()

	fetched := &entity.CachedFeed{Body: body, FetchedAt: s.clock.Now().UTC()}
	if s.cache != nil {
		if err := s.cache.Set(ctx, feedURL, fetched, s.cacheTTL); err != nil {
			s.logger.Warn("Feed cache write failed", "url", calendar.RedactURL(feedURL), "error", err)
		}
	}
	return fetched, nil
}

func (s *CalendarService) wellFormed(events []entity.BookingEvent) []entity.BookingEvent {
	out := events[:0]
	for _, ev := range events {
		if ev.IsMalformed() {
			s.logger.Warn("Discarding malformed calendar event",
				"uid", ev.UID,
				"startDate", ev.StartDate,
				"endDate", ev.EndDate)
			continue
		}
		out = append(out, ev)
	}
	return out
}

// correlate attaches the stored reservation sharing each event's reservation code.
// A lookup failure leaves events uncorrelated.
func (s *CalendarService) correlate(ctx context.Context, events []entity.BookingEvent) []entity.CalendarEvent {
	out := make([]entity.CalendarEvent, 0, len(events))

	codes := make([]string, 0)
	for _, ev := range events {
		if ev.ReservationCode != "" {
			codes = append(codes, ev.ReservationCode)
		}
	}

	matches := map[string]*entity.Reservation{}
	if len(codes) > 0 {
		found, err := s.reservationRepo.FindByReservationCodes(ctx, codes)
		if err != nil {
			s.logger.Warn("Failed to correlate calendar events", "error", err)
		} else {
			matches = found
		}
	}

	for _, ev := range events {
		item := entity.CalendarEvent{BookingEvent: ev}
		if r, ok := matches[ev.ReservationCode]; ok && ev.ReservationCode != "" {
			item.Reservation = &entity.ReservationRef{
				ID:        r.ID,
				Status:    r.Status,
				GuestName: r.GuestName,
			}
		}
		out = append(out, item)
	}
	return out
}
