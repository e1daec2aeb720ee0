package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/pkg/clock"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testMetrics() *metrics.Metrics {
	return metrics.NewMetricsWith(prometheus.NewRegistry(), "test")
}

// fakeReservationRepo mimics the Mongo repository's filter semantics in memory
type fakeReservationRepo struct {
	mu           sync.Mutex
	items        map[string]*entity.Reservation
	seq          int
	transitions  []entity.StatusTransition
	failApply    error
	failConfirm  error
	failOverlap  error
	failFindCode error
}

func newFakeReservationRepo(rs ...*entity.Reservation) *fakeReservationRepo {
	repo := &fakeReservationRepo{items: map[string]*entity.Reservation{}}
	for _, r := range rs {
		repo.put(r)
	}
	return repo
}

func (f *fakeReservationRepo) put(r *entity.Reservation) {
	f.seq++
	if r.ID == "" {
		r.ID = fmt.Sprintf("r%d", f.seq)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	}
	f.items[r.ID] = r
}

func (f *fakeReservationRepo) get(id string) *entity.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

func (f *fakeReservationRepo) sorted() []*entity.Reservation {
	out := make([]*entity.Reservation, 0, len(f.items))
	for _, r := range f.items {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckInDate.Equal(out[j].CheckInDate) {
			return out[i].CheckInDate.Before(out[j].CheckInDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeReservationRepo) Create(ctx context.Context, r *entity.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(r)
	return nil
}

func (f *fakeReservationRepo) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservationRepo) FindByStatus(ctx context.Context, statuses []entity.ReservationStatus, limit int) ([]*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := entity.ReservationQuery{Statuses: statuses}
	out := make([]*entity.Reservation, 0)
	for _, r := range f.sorted() {
		if q.Matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) FindFirst(ctx context.Context, q entity.ReservationQuery) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.sorted() {
		if q.Matches(r) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) FindOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]*entity.Reservation, error) {
	if f.failOverlap != nil {
		return nil, f.failOverlap
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Reservation, 0)
	for _, r := range f.sorted() {
		if r.Status != entity.ReservationCancelled && r.CheckInDate.Before(checkOut) && r.CheckOutDate.After(checkIn) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) FindByReservationCodes(ctx context.Context, codes []string) (map[string]*entity.Reservation, error) {
	if f.failFindCode != nil {
		return nil, f.failFindCode
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]*entity.Reservation{}
	for _, code := range codes {
		for _, r := range f.items {
			if r.ReservationCode == code {
				out[code] = r
			}
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ApplyTransition(ctx context.Context, t entity.StatusTransition) (int64, error) {
	if f.failApply != nil {
		return 0, f.failApply
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, t)
	var n int64
	for _, r := range f.items {
		if t.Matches(r) {
			r.Status = t.To
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepo) ConfirmPending(ctx context.Context, preRegistrationID, userID string) (int64, error) {
	if f.failConfirm != nil {
		return 0, f.failConfirm
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.items {
		if r.PreRegistrationID == preRegistrationID && r.Status == entity.ReservationPending {
			r.UserID = userID
			r.Status = entity.ReservationUpcoming
			r.Notes = strings.Replace(r.Notes, entity.PreReservationTag, entity.ConfirmedTag, 1)
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepo) UpdateStatus(ctx context.Context, id string, status entity.ReservationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return entity.ErrNotFound
	}
	r.Status = status
	return nil
}

type fakePreRegistrationRepo struct {
	items    map[string]*entity.PreRegistration
	seq      int
	failFind error
}

func newFakePreRegistrationRepo(ps ...*entity.PreRegistration) *fakePreRegistrationRepo {
	repo := &fakePreRegistrationRepo{items: map[string]*entity.PreRegistration{}}
	for _, p := range ps {
		repo.items[p.ID] = p
	}
	return repo
}

func (f *fakePreRegistrationRepo) Create(ctx context.Context, p *entity.PreRegistration) error {
	f.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("p%d", f.seq)
	}
	f.items[p.ID] = p
	return nil
}

func (f *fakePreRegistrationRepo) FindByID(ctx context.Context, id string) (*entity.PreRegistration, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePreRegistrationRepo) FindByToken(ctx context.Context, token string) (*entity.PreRegistration, error) {
	for _, p := range f.items {
		if p.Token == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakePreRegistrationRepo) FindByStatus(ctx context.Context, status entity.PreRegistrationStatus) ([]*entity.PreRegistration, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	out := make([]*entity.PreRegistration, 0)
	for _, p := range f.items {
		if p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePreRegistrationRepo) UpdateStatus(ctx context.Context, id string, status entity.PreRegistrationStatus, userID string) error {
	p, ok := f.items[id]
	if !ok {
		return entity.ErrNotFound
	}
	p.Status = status
	if userID != "" {
		p.UserID = userID
	}
	return nil
}

type fakeUserRepo struct {
	items map[string]*entity.User
	seq   int
}

func newFakeUserRepo(us ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{items: map[string]*entity.User{}}
	for _, u := range us {
		repo.items[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	for _, existing := range f.items {
		if existing.Email == u.Email {
			return entity.ErrAlreadyExists
		}
	}
	f.seq++
	if u.ID == "" {
		u.ID = fmt.Sprintf("u%d", f.seq)
	}
	f.items[u.ID] = u
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range f.items {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	for _, u := range f.items {
		if u.VerificationToken != "" && u.VerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, id string) error {
	u, ok := f.items[id]
	if !ok {
		return entity.ErrNotFound
	}
	u.IsVerified = true
	u.VerificationToken = ""
	return nil
}

type fakePropertyRepo struct {
	property *entity.Property
}

func (f *fakePropertyRepo) FindBySlug(ctx context.Context, slug string) (*entity.Property, error) {
	if f.property == nil {
		return nil, entity.ErrNotFound
	}
	cp := *f.property
	return &cp, nil
}

func (f *fakePropertyRepo) Upsert(ctx context.Context, p *entity.Property) error {
	f.property = p
	return nil
}

type fakeFeedCache struct {
	items   map[string]*entity.CachedFeed
	failGet error
	sets    int
}

func newFakeFeedCache() *fakeFeedCache {
	return &fakeFeedCache{items: map[string]*entity.CachedFeed{}}
}

func (f *fakeFeedCache) Get(ctx context.Context, url string) (*entity.CachedFeed, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	return f.items[url], nil
}

func (f *fakeFeedCache) Set(ctx context.Context, url string, feed *entity.CachedFeed, ttl time.Duration) error {
	f.sets++
	f.items[url] = feed
	return nil
}

type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.body, f.err
}

type fakeMailer struct {
	sent []*entity.OutboundEmail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, email *entity.OutboundEmail) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, email)
	return fmt.Sprintf("m%d", len(f.sent)), nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	f.events = append(f.events, publishedEvent{subject: subject, data: data})
	return f.err
}

func (f *fakePublisher) subjects() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.subject)
	}
	return out
}

var errStore = errors.New("store unavailable")

// fixedClock pins "now" to noon UTC on the given date
func fixedClock(date string) clock.Fixed {
	return clock.Fixed{T: day(date).Add(12 * time.Hour)}
}

func newTestReconciler(repo *fakeReservationRepo, pre *fakePreRegistrationRepo, pub *fakePublisher, date string) *ReservationReconciler {
	return NewReservationReconciler(repo, pre, newFakeUserRepo(), pub, fixedClock(date), time.UTC, testMetrics(), logger.NewNop())
}
