package ical

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/pkg/clock"

	ics "github.com/arran4/golang-ical"
)

var fixedNow = clock.Fixed{T: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

func feed(blocks ...string) string {
	return "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Airbnb Inc//Hosting Calendar 0.8.8//EN\r\n" +
		strings.Join(blocks, "") +
		"END:VCALENDAR\r\n"
}

func TestParseDateOnlyEvent(t *testing.T) {
	body := feed("BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240115\r\n" +
		"DTEND;VALUE=DATE:20240118\r\n" +
		"UID:abc@airbnb.com\r\n" +
		"SUMMARY:Reserved\r\n" +
		"END:VEVENT\r\n")

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.StartDate != "2024-01-15" || ev.EndDate != "2024-01-18" {
		t.Errorf("unexpected range %s..%s", ev.StartDate, ev.EndDate)
	}
	if ev.Status != entity.BookingStatusBlocked {
		t.Errorf("expected status blocked, got %q", ev.Status)
	}
	if ev.Summary != "Reserved" {
		t.Errorf("expected summary Reserved, got %q", ev.Summary)
	}
}

func TestParseUTCDateTimeDropsTimeOfDay(t *testing.T) {
	body := feed("BEGIN:VEVENT\n" +
		"DTSTART:20240301T230000Z\n" +
		"DTEND:20240303T010000Z\n" +
		"END:VEVENT\n")

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].StartDate != "2024-03-01" || events[0].EndDate != "2024-03-03" {
		t.Errorf("unexpected range %s..%s", events[0].StartDate, events[0].EndDate)
	}
}

func TestParseReservationCodeFromUID(t *testing.T) {
	body := feed("BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240115\r\n" +
		"DTEND;VALUE=DATE:20240118\r\n" +
		"UID:HM987654321@airbnb.com\r\n" +
		"END:VEVENT\r\n")

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ReservationCode != "HM987654321" {
		t.Errorf("expected HM987654321, got %q", events[0].ReservationCode)
	}
}

func TestUIDCodeMustStartAtSeparator(t *testing.T) {
	cases := map[string]string{
		"HM987654321@airbnb.com":           "HM987654321",
		"booking-hm4455@airbnb.com":        "HM4455",
		"1HM123@airbnb.com":                "",
		"1418fb94e984-7a4ed3c1@airbnb.com": "",
		"HM123":                            "",
	}
	for uid, want := range cases {
		got, _ := codeFromUID(accumulator{uid: uid})
		if got != want {
			t.Errorf("%s: expected %q, got %q", uid, want, got)
		}
	}
}

func TestParseDescriptionCodeTakesPrecedence(t *testing.T) {
	body := feed("BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240115\r\n" +
		"DTEND;VALUE=DATE:20240118\r\n" +
		"UID:HM987654321@airbnb.com\r\n" +
		"DESCRIPTION:Reservation URL: https://www.airbnb.com/hosting/reservations/details/hm-987-654\\nPhone Number (Last 4 Digits): 1234\r\n" +
		"END:VEVENT\r\n")

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ReservationCode != "HM987654" {
		t.Errorf("expected HM987654, got %q", events[0].ReservationCode)
	}
}

func TestParseDetailsURLOnFoldedLine(t *testing.T) {
	body := feed("BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240115\r\n" +
		"DTEND;VALUE=DATE:20240118\r\n" +
		"DESCRIPTION:Reservation URL: https://www.airbnb.com/hosting/reservations/det\r\n" +
		" ails/HMQZ5XK2PA\\nPhone Number (Last 4 Digits): 9876\r\n" +
		"END:VEVENT\r\n")

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ReservationCode != "HMQZ5XK2PA" {
		t.Errorf("expected HMQZ5XK2PA, got %q", events[0].ReservationCode)
	}
}

func TestParseDropsBlockMissingEnd(t *testing.T) {
	body := feed(
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240101\r\nUID:first@airbnb.com\r\nEND:VEVENT\r\n",
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240201\r\nDTEND;VALUE=DATE:20240205\r\nUID:second@airbnb.com\r\nEND:VEVENT\r\n",
	)

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UID != "second@airbnb.com" {
		t.Errorf("expected the second block to survive, got %q", events[0].UID)
	}
}

func TestParseFieldsDoNotLeakAcrossBlocks(t *testing.T) {
	body := feed(
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240101\r\nDTEND;VALUE=DATE:20240103\r\nUID:HMAAAA1@airbnb.com\r\nSUMMARY:Reserved\r\nEND:VEVENT\r\n",
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240110\r\nDTEND;VALUE=DATE:20240112\r\nEND:VEVENT\r\n",
	)

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	second := events[1]
	if second.ReservationCode != "" {
		t.Errorf("code leaked into second block: %q", second.ReservationCode)
	}
	if second.Summary != DefaultSummary {
		t.Errorf("expected default summary, got %q", second.Summary)
	}
	if second.UID == "" || second.UID == events[0].UID {
		t.Errorf("expected a generated UID, got %q", second.UID)
	}
	if !regexp.MustCompile(`^1717243200000-[0-9a-f]{9}$`).MatchString(second.UID) {
		t.Errorf("unexpected fallback UID shape %q", second.UID)
	}
}

func TestParseUnterminatedBlockIsDiscarded(t *testing.T) {
	body := feed(
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240101\r\nDTEND;VALUE=DATE:20240103\r\n",
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240110\r\nDTEND;VALUE=DATE:20240112\r\nEND:VEVENT\r\n",
	)

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 || events[0].StartDate != "2024-01-10" {
		t.Fatalf("expected only the terminated block, got %+v", events)
	}
}

func TestParseIgnoresNestedComponents(t *testing.T) {
	body := feed("BEGIN:VEVENT\r\n" +
		"DTSTART;VALUE=DATE:20240115\r\n" +
		"DTEND;VALUE=DATE:20240118\r\n" +
		"BEGIN:VALARM\r\n" +
		"DESCRIPTION:https://example.com/reservations/details/XX999\r\n" +
		"END:VALARM\r\n" +
		"END:VEVENT\r\n")

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ReservationCode != "" {
		t.Errorf("alarm description should be ignored, got %q", events[0].ReservationCode)
	}
}

func TestParseRejectsUnsupportedDateForms(t *testing.T) {
	body := feed(
		"BEGIN:VEVENT\r\nDTSTART;TZID=Europe/Rome:20240115T150000\r\nDTEND;VALUE=DATE:20240118\r\nEND:VEVENT\r\n",
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:2024011\r\nDTEND;VALUE=DATE:20240118\r\nEND:VEVENT\r\n",
	)

	if events := NewParser(fixedNow).Parse(body); len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, body := range []string{"", "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", "not a calendar at all"} {
		events := NewParser(fixedNow).Parse(body)
		if events == nil || len(events) != 0 {
			t.Errorf("expected empty non-nil slice for %q, got %#v", body, events)
		}
	}
}

func TestParseKeepsFeedOrder(t *testing.T) {
	body := feed(
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240310\r\nDTEND;VALUE=DATE:20240312\r\nEND:VEVENT\r\n",
		"BEGIN:VEVENT\r\nDTSTART;VALUE=DATE:20240101\r\nDTEND;VALUE=DATE:20240103\r\nEND:VEVENT\r\n",
	)

	events := NewParser(fixedNow).Parse(body)
	if len(events) != 2 || events[0].StartDate != "2024-03-10" {
		t.Fatalf("parser must not reorder events: %+v", events)
	}
}

func TestParseCalendarBuiltWithLibrary(t *testing.T) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	ev := cal.AddEvent("HMXK4C9P2T@airbnb.com")
	ev.SetDtStampTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	ev.SetAllDayStartAt(time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC))
	ev.SetAllDayEndAt(time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC))
	ev.SetSummary("Reserved")
	ev.SetDescription("Reservation URL: https://www.airbnb.com/hosting/reservations/details/HMXK4C9P2T Phone Number (Last 4 Digits): 4242 and a tail long enough to force line folding")

	events := NewParser(fixedNow).Parse(cal.Serialize())
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.StartDate != "2024-07-04" || got.EndDate != "2024-07-09" {
		t.Errorf("unexpected range %s..%s", got.StartDate, got.EndDate)
	}
	if got.ReservationCode != "HMXK4C9P2T" {
		t.Errorf("expected HMXK4C9P2T, got %q", got.ReservationCode)
	}
}

func TestUpcomingSortsAndFilters(t *testing.T) {
	events := []entity.BookingEvent{
		{UID: "c", StartDate: "2024-06-10", EndDate: "2024-06-12"},
		{UID: "past", StartDate: "2024-05-25", EndDate: "2024-05-30"},
		{UID: "today", StartDate: "2024-05-28", EndDate: "2024-06-01"},
		{UID: "a", StartDate: "2024-06-02", EndDate: "2024-06-05"},
	}

	got := Upcoming(events, "2024-06-01")
	want := []string{"today", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, uid := range want {
		if got[i].UID != uid {
			t.Errorf("position %d: expected %s, got %s", i, uid, got[i].UID)
		}
	}
}

func TestExportRoundTrip(t *testing.T) {
	reservations := []*entity.Reservation{
		{
			ID:           "65f0c0ffee",
			CheckInDate:  time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			CheckOutDate: time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC),
			Status:       entity.ReservationUpcoming,
		},
		{
			ID:           "65f0c0ffef",
			CheckInDate:  time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC),
			CheckOutDate: time.Date(2024, 8, 12, 0, 0, 0, 0, time.UTC),
			Status:       entity.ReservationCancelled,
		},
	}

	body := Export("-//villa-portal//EN", reservations, fixedNow.T)
	events := NewParser(fixedNow).Parse(body)
	if len(events) != 1 {
		t.Fatalf("expected cancelled reservation to be skipped, got %d events", len(events))
	}
	if events[0].StartDate != "2024-08-01" || events[0].EndDate != "2024-08-05" {
		t.Errorf("unexpected range %s..%s", events[0].StartDate, events[0].EndDate)
	}
	if events[0].UID != "65f0c0ffee@villa-portal" {
		t.Errorf("unexpected uid %q", events[0].UID)
	}
}
