package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eventrsvp/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]*domain.User
	getErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// fakeSessionRepo implements domain.SessionRepository for tests.
type fakeSessionRepo struct {
	sessions  map[string]*domain.Session
	deleteErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if s, ok := f.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNoSession
}

func (f *fakeSessionRepo) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrNoSession
	}
	s.ExpiresAt = expiresAt
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests. It counts comparisons.
type fakePasswordHasher struct {
	compares int
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }

func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}

func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	f.compares++
	if hash != "hash:"+salt+":"+password {
		return domain.ErrBadCredentials
	}
	return nil
}

// fakeEmailService implements domain.EmailService for tests.
type fakeEmailService struct {
	sent []*domain.WelcomeMessageEmailData
	err  error
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

// fakeEventRepo implements domain.EventRepository for tests.
type fakeEventRepo struct {
	nextID    int64
	events    map[int64]*domain.Event
	deleted   []int64
	getErr    error
	createErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*domain.Event)}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	f.nextID++
	e.ID = f.nextID
	f.events[e.ID] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e, ok := f.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, id int64, u domain.EventUpdate) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Title, e.Description, e.Date, e.Location, e.Latitude, e.Longitude = u.Title, u.Description, u.Date, u.Location, u.Latitude, u.Longitude
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEventRepo) ListSummaries(ctx context.Context) ([]*domain.EventSummary, error) {
	var out []*domain.EventSummary
	for _, e := range f.events {
		out = append(out, &domain.EventSummary{ID: e.ID, Title: e.Title, Date: e.Date, Location: e.Location})
	}
	return out, nil
}

// fakeRSVPRepo implements domain.RSVPRepository for tests with the same row semantics as postgres.
// missingUser mimics the users foreign key rejecting that id.
type fakeRSVPRepo struct {
	rows        []*domain.RSVP
	missingUser int64
}

func (f *fakeRSVPRepo) Create(ctx context.Context, r *domain.RSVP) error {
	if f.missingUser != 0 && r.UserID == f.missingUser {
		return domain.ErrUserNotFound
	}
	r.ID = int64(len(f.rows) + 1)
	r.CreatedAt = time.Now()
	cp := *r
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeRSVPRepo) Upsert(ctx context.Context, r *domain.RSVP) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.EventID == r.EventID && row.UserID == r.UserID {
			continue
		}
		kept = append(kept, row)
	}
	f.rows = kept
	return f.Create(ctx, r)
}

func (f *fakeRSVPRepo) SummaryByEventID(ctx context.Context, eventID int64) (*domain.RSVPSummary, error) {
	s := &domain.RSVPSummary{}
	for _, row := range f.rows {
		if row.EventID != eventID {
			continue
		}
		s.TotalRSVPs++
		if row.Response == domain.RSVPMaybe {
			s.PendingRSVPs++
		}
	}
	return s, nil
}

func (f *fakeRSVPRepo) CountByResponse(ctx context.Context) ([]*domain.RSVPResponseCount, error) {
	counts := map[domain.RSVPResponse]int{}
	for _, row := range f.rows {
		counts[row.Response]++
	}
	var out []*domain.RSVPResponseCount
	for _, r := range []domain.RSVPResponse{domain.RSVPMaybe, domain.RSVPNo, domain.RSVPYes} {
		if counts[r] > 0 {
			out = append(out, &domain.RSVPResponseCount{Response: r, Count: counts[r]})
		}
	}
	return out, nil
}

// fakeInvitationRepo implements domain.InvitationRepository for tests. advanceHook, when set,
// runs on the stored attempt before the state comparison of Advance.
type fakeInvitationRepo struct {
	mu           sync.Mutex
	attempts     map[string]*domain.InvitationAttempt
	byID         map[int64]*domain.InvitationAttempt
	claimedUntil map[int64]time.Time
	failures     []string
	advanceHook  func(a *domain.InvitationAttempt)
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{
		attempts:     make(map[string]*domain.InvitationAttempt),
		byID:         make(map[int64]*domain.InvitationAttempt),
		claimedUntil: make(map[int64]time.Time),
	}
}

func invitationKey(eventID int64, email string) string {
	return strings.ToLower(email) + "#" + domain.EventTag(eventID)
}

func (f *fakeInvitationRepo) GetOrCreate(ctx context.Context, eventID int64, email string) (*domain.InvitationAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := invitationKey(eventID, email)
	a, ok := f.attempts[key]
	if !ok {
		a = &domain.InvitationAttempt{ID: int64(len(f.byID) + 1), EventID: eventID, Email: email, State: domain.InvitationValidated}
		f.attempts[key] = a
		f.byID[a.ID] = a
	}
	cp := *a
	return &cp, nil
}

func (f *fakeInvitationRepo) Claim(ctx context.Context, id int64, until time.Time) (*domain.InvitationAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if held, ok := f.claimedUntil[id]; ok && held.After(time.Now()) {
		return nil, domain.ErrInvitationInProgress
	}
	f.claimedUntil[id] = until
	cp := *a
	return &cp, nil
}

func (f *fakeInvitationRepo) Release(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claimedUntil, id)
	return nil
}

func (f *fakeInvitationRepo) Advance(ctx context.Context, id int64, from, to domain.InvitationState, campaignID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if f.advanceHook != nil {
		f.advanceHook(a)
	}
	if a.State != from {
		return domain.ErrInvitationInProgress
	}
	a.State = to
	if campaignID != "" {
		a.CampaignID = campaignID
	}
	a.LastError = ""
	return nil
}

func (f *fakeInvitationRepo) RecordFailure(ctx context.Context, id int64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.LastError = message
	f.failures = append(f.failures, message)
	return nil
}

func (f *fakeInvitationRepo) ListByEventID(ctx context.Context, eventID int64, params domain.PaginationParams) ([]*domain.InvitationAttempt, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.InvitationAttempt
	for _, a := range f.byID {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

// fakeMailingList implements domain.MailingList for tests. failOn names the method that errors.
// When entered is set, UpsertMember signals it and then waits for hold to close.
type fakeMailingList struct {
	entered   chan struct{}
	hold      chan struct{}
	members   map[string]*domain.MailingListMember
	calls     []string
	campaigns []domain.CampaignSettings
	content   map[string]string
	sends     int
	failOn    string
	failErr   error
}

func newFakeMailingList() *fakeMailingList {
	return &fakeMailingList{
		members: make(map[string]*domain.MailingListMember),
		content: make(map[string]string),
	}
}

func (f *fakeMailingList) check(method string) error {
	f.calls = append(f.calls, method)
	if f.failOn == method {
		if f.failErr != nil {
			return f.failErr
		}
		return errors.New(method + " failed")
	}
	return nil
}

func (f *fakeMailingList) GetMember(ctx context.Context, email string) (*domain.MailingListMember, error) {
	if err := f.check("GetMember"); err != nil {
		return nil, err
	}
	if m, ok := f.members[email]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMailingList) UpsertMember(ctx context.Context, email string) (*domain.MailingListMember, error) {
	if err := f.check("UpsertMember"); err != nil {
		return nil, err
	}
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.hold
	}
	m, ok := f.members[email]
	if !ok {
		m = &domain.MailingListMember{ID: "m-" + email, Email: email, Status: "subscribed"}
		f.members[email] = m
	}
	return m, nil
}

func (f *fakeMailingList) CreateCampaign(ctx context.Context, settings domain.CampaignSettings) (string, error) {
	if err := f.check("CreateCampaign"); err != nil {
		return "", err
	}
	f.campaigns = append(f.campaigns, settings)
	return "cmp-" + string(rune('0'+len(f.campaigns))), nil
}

func (f *fakeMailingList) SetCampaignContent(ctx context.Context, campaignID, html string) error {
	if err := f.check("SetCampaignContent"); err != nil {
		return err
	}
	f.content[campaignID] = html
	return nil
}

func (f *fakeMailingList) SendCampaign(ctx context.Context, campaignID string) error {
	if err := f.check("SendCampaign"); err != nil {
		return err
	}
	f.sends++
	return nil
}

func (f *fakeMailingList) TagMember(ctx context.Context, email, tag string) error {
	if err := f.check("TagMember"); err != nil {
		return err
	}
	m, ok := f.members[email]
	if !ok {
		m = &domain.MailingListMember{Email: email}
		f.members[email] = m
	}
	m.Tags = append(m.Tags, tag)
	return nil
}

// fakeRenderer implements domain.EmailTemplateRenderer for tests.
type fakeRenderer struct {
	last any
	err  error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	f.last = data
	return "subject:" + name, "<p>" + name + "</p>", name, nil
}

// fakeResolver implements domain.LocationResolver for tests.
type fakeResolver struct {
	name  string
	ok    bool
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, lat, lon float64) (string, bool) {
	f.calls++
	return f.name, f.ok
}
