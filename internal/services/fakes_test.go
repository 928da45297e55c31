package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"medbook_backend/internal/calendar"
	"medbook_backend/internal/config"
	"medbook_backend/internal/email"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

func init() {
	// Services read the global config for token and upload settings
	cfg := &config.Config{}
	cfg.JWT.Secret = "service-test-secret"
	cfg.JWT.TTL = 60
	cfg.JWT.RefreshTTL = 720
	cfg.Upload.MaxSize = 1024
	cfg.Upload.AllowedTypes = []string{"application/pdf", "audio/mpeg"}
	config.AppConfig = cfg
}

// In-memory fakes for the repository interfaces. They implement just
// enough behavior for the service tests.

type fakeSpecialistRepo struct {
	specialists map[string]*models.Specialist
}

func newFakeSpecialistRepo(specialists ...*models.Specialist) *fakeSpecialistRepo {
	repo := &fakeSpecialistRepo{specialists: make(map[string]*models.Specialist)}
	for _, s := range specialists {
		repo.specialists[s.ID] = s
	}
	return repo
}

func (r *fakeSpecialistRepo) Create(_ context.Context, s *models.Specialist) error {
	r.specialists[s.ID] = s
	return nil
}

func (r *fakeSpecialistRepo) FindByID(_ context.Context, id string) (*models.Specialist, error) {
	s, ok := r.specialists[id]
	if !ok {
		return nil, apperrors.ErrSpecialistNotFound
	}
	return s, nil
}

func (r *fakeSpecialistRepo) FindByUserID(_ context.Context, userID string) (*models.Specialist, error) {
	for _, s := range r.specialists {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, apperrors.ErrSpecialistNotFound
}

func (r *fakeSpecialistRepo) Update(_ context.Context, s *models.Specialist) error {
	r.specialists[s.ID] = s
	return nil
}

func (r *fakeSpecialistRepo) List(_ context.Context, specialty string, acceptingOnly bool) ([]models.Specialist, error) {
	var out []models.Specialist
	for _, s := range r.specialists {
		if specialty != "" && s.Specialty != specialty {
			continue
		}
		if acceptingOnly && !s.IsAccepting {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

type fakeBookingRepo struct {
	bookings map[string]*models.Booking
	nextID   int
}

func newFakeBookingRepo(bookings ...*models.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (r *fakeBookingRepo) Create(_ context.Context, b *models.Booking) error {
	if b.ID == "" {
		r.nextID++
		b.ID = fmt.Sprintf("booking-%d", r.nextID)
	}
	r.bookings[b.ID] = b
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id string) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) FindByProviderAppointmentID(_ context.Context, providerID string) (*models.Booking, error) {
	for _, b := range r.bookings {
		if b.ProviderAppointmentID == providerID {
			return b, nil
		}
	}
	return nil, apperrors.ErrBookingNotFound
}

func (r *fakeBookingRepo) Update(_ context.Context, b *models.Booking) error {
	r.bookings[b.ID] = b
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id string) error {
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) ListByReferrer(_ context.Context, referrerID string) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.ReferrerID == referrerID }), nil
}

func (r *fakeBookingRepo) ListBySpecialist(_ context.Context, specialistID string) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.SpecialistID == specialistID }), nil
}

func (r *fakeBookingRepo) ListByExaminee(_ context.Context, examineeID string) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool { return b.ExamineeID == examineeID }), nil
}

func (r *fakeBookingRepo) ActiveInRange(_ context.Context, specialistID string, from, to time.Time) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool {
		return b.SpecialistID == specialistID && bookingIsActive(b.Status) &&
			b.StartsAt.Before(to) && b.EndsAt.After(from)
	}), nil
}

func (r *fakeBookingRepo) HasOverlap(_ context.Context, specialistID string, start, end time.Time, excludeID string) (bool, error) {
	for _, b := range r.bookings {
		if b.ID == excludeID || b.SpecialistID != specialistID || !bookingIsActive(b.Status) {
			continue
		}
		if b.StartsAt.Before(end) && b.EndsAt.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) ConfirmedEndedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Booking, error) {
	out := r.filter(func(b *models.Booking) bool {
		return (b.Status == models.BookingStatusConfirmed || b.Status == models.BookingStatusRescheduled) &&
			b.EndsAt.Before(cutoff)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBookingRepo) ConfirmedStartingBetween(_ context.Context, from, to time.Time) ([]models.Booking, error) {
	return r.filter(func(b *models.Booking) bool {
		return (b.Status == models.BookingStatusConfirmed || b.Status == models.BookingStatusRescheduled) &&
			!b.StartsAt.Before(from) && b.StartsAt.Before(to)
	}), nil
}

func (r *fakeBookingRepo) filter(keep func(*models.Booking) bool) []models.Booking {
	var out []models.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

func bookingIsActive(status models.BookingStatus) bool {
	switch status {
	case models.BookingStatusRequested, models.BookingStatusConfirmed, models.BookingStatusRescheduled:
		return true
	}
	return false
}

type fakeExamineeRepo struct {
	examinees map[string]*models.Examinee
}

func newFakeExamineeRepo(examinees ...*models.Examinee) *fakeExamineeRepo {
	repo := &fakeExamineeRepo{examinees: make(map[string]*models.Examinee)}
	for _, e := range examinees {
		repo.examinees[e.ID] = e
	}
	return repo
}

func (r *fakeExamineeRepo) Create(_ context.Context, e *models.Examinee) error {
	r.examinees[e.ID] = e
	return nil
}

func (r *fakeExamineeRepo) FindByID(_ context.Context, id string) (*models.Examinee, error) {
	e, ok := r.examinees[id]
	if !ok {
		return nil, apperrors.ErrExamineeNotFound
	}
	return e, nil
}

func (r *fakeExamineeRepo) FindByUserID(_ context.Context, userID string) (*models.Examinee, error) {
	for _, e := range r.examinees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return nil, apperrors.ErrExamineeNotFound
}

func (r *fakeExamineeRepo) Update(_ context.Context, e *models.Examinee) error {
	r.examinees[e.ID] = e
	return nil
}

func (r *fakeExamineeRepo) Delete(_ context.Context, id string) error {
	delete(r.examinees, id)
	return nil
}

func (r *fakeExamineeRepo) Search(_ context.Context, query string, limit int) ([]models.Examinee, error) {
	var out []models.Examinee
	for _, e := range r.examinees {
		if strings.Contains(strings.ToLower(e.FirstName+" "+e.LastName+" "+e.MatterReference), strings.ToLower(query)) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeReferrerRepo struct {
	referrers map[string]*models.Referrer
}

func newFakeReferrerRepo(referrers ...*models.Referrer) *fakeReferrerRepo {
	repo := &fakeReferrerRepo{referrers: make(map[string]*models.Referrer)}
	for _, ref := range referrers {
		repo.referrers[ref.ID] = ref
	}
	return repo
}

func (r *fakeReferrerRepo) Create(_ context.Context, ref *models.Referrer) error {
	r.referrers[ref.ID] = ref
	return nil
}

func (r *fakeReferrerRepo) FindByID(_ context.Context, id string) (*models.Referrer, error) {
	ref, ok := r.referrers[id]
	if !ok {
		return nil, apperrors.ErrReferrerNotFound
	}
	return ref, nil
}

func (r *fakeReferrerRepo) FindByUserID(_ context.Context, userID string) (*models.Referrer, error) {
	for _, ref := range r.referrers {
		if ref.UserID == userID {
			return ref, nil
		}
	}
	return nil, apperrors.ErrReferrerNotFound
}

func (r *fakeReferrerRepo) ListByOrganization(_ context.Context, orgID string) ([]models.Referrer, error) {
	var out []models.Referrer
	for _, ref := range r.referrers {
		if ref.OrganizationID == orgID {
			out = append(out, *ref)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	events map[string]*models.WebhookEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*models.WebhookEvent)}
}

func (r *fakeEventRepo) Create(_ context.Context, e *models.WebhookEvent) error {
	r.events[e.ProviderEventID] = e
	return nil
}

func (r *fakeEventRepo) FindByProviderEventID(_ context.Context, id string) (*models.WebhookEvent, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) Update(_ context.Context, e *models.WebhookEvent) error {
	r.events[e.ProviderEventID] = e
	return nil
}

func (r *fakeEventRepo) ListFailed(_ context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	var out []models.WebhookEvent
	for _, e := range r.events {
		if e.Status == models.WebhookStatusFailed && e.Attempts < maxAttempts {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	if u.ID == "" {
		r.nextID++
		u.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeRefreshTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	r.tokens[t.Token] = t
	return nil
}

func (r *fakeRefreshTokenRepo) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	return t, nil
}

func (r *fakeRefreshTokenRepo) DeleteByToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteByUser(_ context.Context, userID string) error {
	for token, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for token, t := range r.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(r.tokens, token)
			n++
		}
	}
	return n, nil
}

type fakeOrganizationRepo struct {
	orgs map[string]*models.Organization
}

func newFakeOrganizationRepo(orgs ...*models.Organization) *fakeOrganizationRepo {
	repo := &fakeOrganizationRepo{orgs: make(map[string]*models.Organization)}
	for _, o := range orgs {
		repo.orgs[o.ID] = o
	}
	return repo
}

func (r *fakeOrganizationRepo) Create(_ context.Context, o *models.Organization) error {
	r.orgs[o.ID] = o
	return nil
}

func (r *fakeOrganizationRepo) FindByID(_ context.Context, id string) (*models.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, apperrors.ErrOrganizationNotFound
	}
	return o, nil
}

func (r *fakeOrganizationRepo) Update(_ context.Context, o *models.Organization) error {
	r.orgs[o.ID] = o
	return nil
}

func (r *fakeOrganizationRepo) Delete(_ context.Context, id string) error {
	delete(r.orgs, id)
	return nil
}

func (r *fakeOrganizationRepo) List(_ context.Context) ([]models.Organization, error) {
	var out []models.Organization
	for _, o := range r.orgs {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrganizationRepo) NameExists(_ context.Context, name string) (bool, error) {
	for _, o := range r.orgs {
		if o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// fakeCalendarProvider returns a fixed busy list.
type fakeCalendarProvider struct {
	busy []calendar.BusyInterval
	err  error
}

func (p *fakeCalendarProvider) BusyIntervals(_ context.Context, _ string, _, _ time.Time) ([]calendar.BusyInterval, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.busy, nil
}

// spyEmailProvider records sent template emails.
type spyEmailProvider struct {
	mu   sync.Mutex
	sent []string // template names
}

func (p *spyEmailProvider) Send(_ *email.Email) error { return nil }

func (p *spyEmailProvider) SendTemplate(_ []string, _ string, templateName string, _ email.TemplateData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, templateName)
	return nil
}

func (p *spyEmailProvider) Validate() error { return nil }
func (p *spyEmailProvider) Close() error    { return nil }

// --- builders ---

func testSpecialist(id string) *models.Specialist {
	windows := []models.WorkingWindow{
		{Weekday: 1, Start: "09:00", End: "12:00"}, // Monday mornings
	}
	types := map[string]models.AppointmentTypeMapping{
		"ime_orthopaedic": {ProviderType: "ime", DurationMin: 60, BufferMin: 15},
		"telehealth_review": {ProviderType: "review", DurationMin: 30, BufferMin: 0, Telehealth: true},
	}
	windowsJSON, _ := json.Marshal(windows)
	typesJSON, _ := json.Marshal(types)

	return &models.Specialist{
		BaseModel:        models.BaseModel{ID: id},
		UserID:           "user-" + id,
		Specialty:        "orthopaedics",
		Timezone:         "UTC",
		IsAccepting:      true,
		WorkingHours:     datatypes.JSON(windowsJSON),
		AppointmentTypes: datatypes.JSON(typesJSON),
	}
}
