package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/interface/calendar"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testFeedURL = "https://www.airbnb.com/calendar/ical/123.ics?s=secret"

func vevent(uid, start, end string) string {
	return "BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:" + start + "\r\n" +
		"DTEND;VALUE=DATE:" + end + "\r\n" +
		"UID:" + uid + "\r\n" +
		"SUMMARY:Reserved\r\n" +
		"END:VEVENT\r\n"
}

func calendarBody(events ...string) string {
	return "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n" + strings.Join(events, "") + "END:VCALENDAR\r\n"
}

type calendarFixture struct {
	reservations *fakeReservationRepo
	cache        *fakeFeedCache
	fetcher      *fakeFetcher
	metrics      *metrics.Metrics
	service      *CalendarService
}

func newCalendarFixture(url string) *calendarFixture {
	f := &calendarFixture{
		reservations: newFakeReservationRepo(),
		cache:        newFakeFeedCache(),
		fetcher:      &fakeFetcher{},
		metrics:      testMetrics(),
	}
	props := &fakePropertyRepo{property: &entity.Property{Slug: "villa", Name: "Villa", CalendarURL: url}}
	f.service = NewCalendarService(props, f.reservations, f.cache, f.fetcher,
		fixedClock("2024-06-01"), time.UTC, 15*time.Minute, "villa", f.metrics, logger.NewNop())
	return f
}

func TestGetFeedWithoutCalendarURL(t *testing.T) {
	f := newCalendarFixture("")

	feed, err := f.service.GetFeed(context.Background())
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if feed.Events == nil || len(feed.Events) != 0 {
		t.Errorf("expected empty non-nil events, got %v", feed.Events)
	}
	if feed.Message == "" || feed.CalendarURL != nil {
		t.Errorf("unexpected feed %+v", feed)
	}
	if f.fetcher.calls != 0 {
		t.Errorf("nothing should be fetched")
	}
}

func TestGetFeedFiltersSortsAndCorrelates(t *testing.T) {
	f := newCalendarFixture(testFeedURL)
	f.fetcher.body = calendarBody(
		vevent("HMLATER1@airbnb.com", "20240620", "20240623"),
		vevent("HMPAST01@airbnb.com", "20240525", "20240530"),
		vevent("HMTODAY1@airbnb.com", "20240528", "20240601"),
		vevent("backwards@airbnb.com", "20240615", "20240612"),
	)
	f.reservations.put(&entity.Reservation{ID: "r1", ReservationCode: "HMLATER1", Status: entity.ReservationUpcoming, GuestName: "Ana"})

	feed, err := f.service.GetFeed(context.Background())
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if feed.TotalEvents != 2 || len(feed.Events) != 2 {
		t.Fatalf("expected 2 events, got %+v", feed.Events)
	}
	if feed.Events[0].ReservationCode != "HMTODAY1" || feed.Events[1].ReservationCode != "HMLATER1" {
		t.Errorf("unexpected order %s, %s", feed.Events[0].ReservationCode, feed.Events[1].ReservationCode)
	}
	if feed.Events[0].Reservation != nil {
		t.Errorf("uncorrelated event should have no reservation")
	}
	ref := feed.Events[1].Reservation
	if ref == nil || ref.ID != "r1" || ref.GuestName != "Ana" {
		t.Errorf("expected correlation to r1, got %+v", ref)
	}
	if feed.CalendarURL == nil || strings.Contains(*feed.CalendarURL, "secret") {
		t.Errorf("calendar url must be stripped, got %v", feed.CalendarURL)
	}
	if feed.LastSync == nil || !feed.LastSync.Equal(fixedClock("2024-06-01").Now()) {
		t.Errorf("unexpected last sync %v", feed.LastSync)
	}
	if got := testutil.ToFloat64(f.metrics.FeedEvents); got != 2 {
		t.Errorf("expected gauge 2, got %v", got)
	}
}

func TestGetFeedUsesCache(t *testing.T) {
	f := newCalendarFixture(testFeedURL)
	f.fetcher.body = calendarBody(vevent("HMONE001@airbnb.com", "20240610", "20240612"))

	for i := 0; i < 2; i++ {
		if _, err := f.service.GetFeed(context.Background()); err != nil {
			t.Fatalf("get feed %d: %v", i, err)
		}
	}
	if f.fetcher.calls != 1 {
		t.Errorf("expected one fetch, got %d", f.fetcher.calls)
	}
	if got := testutil.ToFloat64(f.metrics.FeedFetches.WithLabelValues("cache_hit")); got != 1 {
		t.Errorf("expected one cache hit, got %v", got)
	}

	if err := f.service.Warm(context.Background()); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if f.fetcher.calls != 2 || f.cache.sets != 2 {
		t.Errorf("warm should bypass the cache, calls=%d sets=%d", f.fetcher.calls, f.cache.sets)
	}
}

func TestGetFeedFallsBackWhenCacheFails(t *testing.T) {
	f := newCalendarFixture(testFeedURL)
	f.cache.failGet = errors.New("redis down")
	f.fetcher.body = calendarBody(vevent("HMONE001@airbnb.com", "20240610", "20240612"))

	feed, err := f.service.GetFeed(context.Background())
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if len(feed.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(feed.Events))
	}
}

func TestGetFeedPropagatesFetchError(t *testing.T) {
	f := newCalendarFixture(testFeedURL)
	f.fetcher.err = &calendar.FetchError{URL: calendar.RedactURL(testFeedURL), StatusCode: 503}

	feed, err := f.service.GetFeed(context.Background())
	var fetchErr *calendar.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if feed != nil {
		t.Errorf("no feed expected on failure")
	}
	if f.cache.sets != 0 {
		t.Errorf("failures must not be cached")
	}
}

func TestGetFeedIgnoresCorrelationFailure(t *testing.T) {
	f := newCalendarFixture(testFeedURL)
	f.fetcher.body = calendarBody(vevent("HMONE001@airbnb.com", "20240610", "20240612"))
	f.reservations.failFindCode = errStore

	feed, err := f.service.GetFeed(context.Background())
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if len(feed.Events) != 1 || feed.Events[0].Reservation != nil {
		t.Errorf("expected one uncorrelated event, got %+v", feed.Events)
	}
}

func TestExportICSSkipsInactive(t *testing.T) {
	f := newCalendarFixture(testFeedURL)
	f.reservations.put(&entity.Reservation{ID: "keep", Status: entity.ReservationUpcoming, CheckInDate: day("2024-07-01"), CheckOutDate: day("2024-07-03")})
	f.reservations.put(&entity.Reservation{ID: "gone", Status: entity.ReservationCancelled, CheckInDate: day("2024-07-10"), CheckOutDate: day("2024-07-12")})
	f.reservations.put(&entity.Reservation{ID: "old", Status: entity.ReservationCompleted, CheckInDate: day("2024-05-01"), CheckOutDate: day("2024-05-03")})

	body, err := f.service.ExportICS(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(body, "keep@villa-portal") {
		t.Errorf("active reservation missing from export")
	}
	if strings.Contains(body, "gone@villa-portal") || strings.Contains(body, "old@villa-portal") {
		t.Errorf("inactive reservations exported")
	}
}
