package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meinhoongagan/healthcoach-api/cache"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
)

// memStore backs every fake repository. txMu serializes transactions the way
// row locks serialize them in Postgres.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	seq  uint

	users        map[uint]*models.User
	apps         map[uint]*models.AppointmentApplication
	appts        map[uint]*models.Appointment
	rooms        map[uint]*models.SessionRoom
	messages     []models.ChatMessage
	notes        map[uint]*models.SessionNote
	perms        map[uint]*models.Permission
	userData     map[uint]*models.UserData
	goals        map[uint]*models.Goal
	targets      map[uint]*models.NutritionTarget
	audits       []models.UserHealthChangeAudit
	profiles     map[uint]*models.ConsultantProfile
	docs         map[uint]*models.ConsultantDocument
	createdAppts int
	userLocks    int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uint]*models.User{},
		apps:     map[uint]*models.AppointmentApplication{},
		appts:    map[uint]*models.Appointment{},
		rooms:    map[uint]*models.SessionRoom{},
		notes:    map[uint]*models.SessionNote{},
		perms:    map[uint]*models.Permission{},
		userData: map[uint]*models.UserData{},
		goals:    map[uint]*models.Goal{},
		targets:  map[uint]*models.NutritionTarget{},
		profiles: map[uint]*models.ConsultantProfile{},
		docs:     map[uint]*models.ConsultantDocument{},
	}
}

func (m *memStore) nextID() uint {
	m.seq++
	return m.seq
}

type fakeTx struct{ s *memStore }

type fakeTxKey struct{}

func (t fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

// users

type fakeUsers struct{ s *memStore }

func (f fakeUsers) Create(_ context.Context, u *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u.ID = f.s.nextID()
	if u.UserType == "" {
		u.UserType = models.UserTypeUser
	}
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	f.s.mu.Lock()
	f.s.userLocks++
	f.s.mu.Unlock()
	return f.FindByID(ctx, id)
}

func (f fakeUsers) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Username == identifier || strings.EqualFold(u.Email, identifier) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string, excludeID uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.ID == excludeID {
			continue
		}
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) Update(_ context.Context, u *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

// applications

type fakeApps struct{ s *memStore }

func (f fakeApps) Create(_ context.Context, a *models.AppointmentApplication) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a.ID = f.s.nextID()
	a.CreatedAt = time.Now()
	cp := *a
	f.s.apps[a.ID] = &cp
	return nil
}

func (f fakeApps) FindByID(_ context.Context, id uint) (*models.AppointmentApplication, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.apps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeApps) FindByIDForUpdate(ctx context.Context, id uint) (*models.AppointmentApplication, error) {
	return f.FindByID(ctx, id)
}

func (f fakeApps) list(match func(*models.AppointmentApplication) bool) []models.AppointmentApplication {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.AppointmentApplication
	for _, a := range f.s.apps {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f fakeApps) ListByUser(_ context.Context, userID uint) ([]models.AppointmentApplication, error) {
	return f.list(func(a *models.AppointmentApplication) bool { return a.UserID == userID }), nil
}

func (f fakeApps) ListByConsultant(_ context.Context, id uint) ([]models.AppointmentApplication, error) {
	return f.list(func(a *models.AppointmentApplication) bool { return a.ConsultantUserID == id }), nil
}

func (f fakeApps) UpdateStatus(_ context.Context, id uint, status models.ApplicationStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.apps[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = status
	return nil
}

// appointments

type fakeAppts struct{ s *memStore }

func (f fakeAppts) Create(_ context.Context, a *models.Appointment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a.ID = f.s.nextID()
	cp := *a
	f.s.appts[a.ID] = &cp
	f.s.createdAppts++
	return nil
}

func (f fakeAppts) FindByID(_ context.Context, id uint) (*models.Appointment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.appts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAppts) list(match func(*models.Appointment) bool) []models.Appointment {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Appointment
	for _, a := range f.s.appts {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStartAt.After(out[j].ScheduledStartAt) })
	return out
}

func (f fakeAppts) ListByUser(_ context.Context, userID uint) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool { return a.UserID == userID }), nil
}

func (f fakeAppts) ListByConsultant(_ context.Context, id uint) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool { return a.ConsultantUserID == id }), nil
}

func (f fakeAppts) HasOverlap(_ context.Context, consultantUserID uint, start, end time.Time) (bool, error) {
	hits := f.list(func(a *models.Appointment) bool {
		return a.ConsultantUserID == consultantUserID && a.Status == models.StatusScheduled &&
			a.ScheduledStartAt.Before(end) && a.ScheduledEndAt.After(start)
	})
	return len(hits) > 0, nil
}

func (f fakeAppts) CompareAndSwapStatus(_ context.Context, id uint, from, to models.AppointmentStatus) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.appts[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (f fakeAppts) ListScheduledStartingBetween(_ context.Context, from, to time.Time) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool {
		return a.Status == models.StatusScheduled && !a.ScheduledStartAt.Before(from) && !a.ScheduledStartAt.After(to)
	}), nil
}

func (f fakeAppts) ListScheduledWithRoomStatus(_ context.Context, status models.RoomStatus, endedBefore time.Time) ([]models.Appointment, error) {
	f.s.mu.Lock()
	roomStatus := map[uint]models.RoomStatus{}
	for _, r := range f.s.rooms {
		roomStatus[r.AppointmentID] = r.Status
	}
	f.s.mu.Unlock()
	return f.list(func(a *models.Appointment) bool {
		st, ok := roomStatus[a.ID]
		if !ok || st != status || a.Status != models.StatusScheduled {
			return false
		}
		return endedBefore.IsZero() || a.ScheduledEndAt.Before(endedBefore)
	}), nil
}

// rooms

type fakeRooms struct{ s *memStore }

func (f fakeRooms) Create(_ context.Context, r *models.SessionRoom) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.rooms {
		if existing.AppointmentID == r.AppointmentID {
			*r = *existing
			return nil
		}
	}
	r.ID = f.s.nextID()
	if r.Status == "" {
		r.Status = models.RoomNotStarted
	}
	cp := *r
	f.s.rooms[r.ID] = &cp
	return nil
}

func (f fakeRooms) FindByID(_ context.Context, id uint) (*models.SessionRoom, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.rooms[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f fakeRooms) FindByAppointmentID(_ context.Context, appointmentID uint) (*models.SessionRoom, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.rooms {
		if r.AppointmentID == appointmentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeRooms) CompareAndSwapStatus(_ context.Context, id uint, from, to models.RoomStatus, actorID uint, at time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.rooms[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	switch to {
	case models.RoomActive:
		r.StartedAt, r.StartedByUserID = &at, &actorID
	case models.RoomEnded:
		r.EndedAt, r.EndedByUserID = &at, &actorID
	}
	return true, nil
}

// messages

type fakeMessages struct{ s *memStore }

func (f fakeMessages) Create(_ context.Context, m *models.ChatMessage) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	m.ID = f.s.nextID()
	f.s.messages = append(f.s.messages, *m)
	return nil
}

func (f fakeMessages) List(_ context.Context, roomID, afterID uint, limit int) ([]models.ChatMessage, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.s.messages {
		if m.RoomID == roomID && m.ID > afterID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		if afterID > 0 {
			out = out[:limit]
		} else {
			out = out[len(out)-limit:]
		}
	}
	return out, nil
}

// notes

type fakeNotes struct{ s *memStore }

func (f fakeNotes) FindByAppointmentID(_ context.Context, appointmentID uint) (*models.SessionNote, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n, ok := f.s.notes[appointmentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f fakeNotes) Upsert(_ context.Context, n *models.SessionNote) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if existing, ok := f.s.notes[n.AppointmentID]; ok {
		n.ID = existing.ID
	} else {
		n.ID = f.s.nextID()
	}
	cp := *n
	f.s.notes[n.AppointmentID] = &cp
	return nil
}

// permissions

type fakePerms struct{ s *memStore }

func (f fakePerms) Create(_ context.Context, p *models.Permission) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = f.s.nextID()
	cp := *p
	f.s.perms[p.ID] = &cp
	return nil
}

func (f fakePerms) Save(_ context.Context, p *models.Permission) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *p
	f.s.perms[p.ID] = &cp
	return nil
}

func (f fakePerms) list(match func(*models.Permission) bool) []models.Permission {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Permission
	for _, p := range f.s.perms {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakePerms) ListByPair(_ context.Context, userID, consultantUserID uint, _ bool) ([]models.Permission, error) {
	return f.list(func(p *models.Permission) bool {
		return p.UserID == userID && p.ConsultantUserID == consultantUserID
	}), nil
}

func (f fakePerms) ListActiveByPair(_ context.Context, userID, consultantUserID uint) ([]models.Permission, error) {
	return f.list(func(p *models.Permission) bool {
		return p.UserID == userID && p.ConsultantUserID == consultantUserID && p.Status == models.PermissionActive
	}), nil
}

func (f fakePerms) ListByUser(_ context.Context, userID uint) ([]models.Permission, error) {
	return f.list(func(p *models.Permission) bool { return p.UserID == userID }), nil
}

// health

type fakeHealth struct{ s *memStore }

func (f fakeHealth) FindUserData(_ context.Context, userID uint) (*models.UserData, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.userData[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f fakeHealth) SaveUserData(_ context.Context, d *models.UserData) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if d.ID == 0 {
		d.ID = f.s.nextID()
	}
	cp := *d
	f.s.userData[d.UserID] = &cp
	return nil
}

func (f fakeHealth) FindGoal(_ context.Context, userID uint) (*models.Goal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.goals[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f fakeHealth) SaveGoal(_ context.Context, g *models.Goal) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if g.ID == 0 {
		g.ID = f.s.nextID()
	}
	cp := *g
	f.s.goals[g.UserID] = &cp
	return nil
}

func (f fakeHealth) DeleteGoal(_ context.Context, userID uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.goals, userID)
	return nil
}

func (f fakeHealth) FindNutritionTarget(_ context.Context, userID uint) (*models.NutritionTarget, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.targets[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeHealth) SaveNutritionTarget(_ context.Context, t *models.NutritionTarget) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if t.ID == 0 {
		t.ID = f.s.nextID()
	}
	cp := *t
	f.s.targets[t.UserID] = &cp
	return nil
}

type fakeAudits struct{ s *memStore }

func (f fakeAudits) Create(_ context.Context, e *models.UserHealthChangeAudit) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e.ID = f.s.nextID()
	f.s.audits = append(f.s.audits, *e)
	return nil
}

func (f fakeAudits) ListByUser(_ context.Context, userID uint, limit int) ([]models.UserHealthChangeAudit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.UserHealthChangeAudit
	for i := len(f.s.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if f.s.audits[i].UserID == userID {
			out = append(out, f.s.audits[i])
		}
	}
	return out, nil
}

// consultants

type fakeConsultants struct{ s *memStore }

func (f fakeConsultants) FindProfileByID(_ context.Context, id uint) (*models.ConsultantProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeConsultants) FindProfileByUserID(_ context.Context, userID uint) (*models.ConsultantProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeConsultants) SaveProfile(_ context.Context, p *models.ConsultantProfile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.s.nextID()
	}
	cp := *p
	f.s.profiles[p.ID] = &cp
	return nil
}

func (f fakeConsultants) Search(_ context.Context, q repositories.ConsultantSearch) ([]models.ConsultantProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.ConsultantProfile
	for _, p := range f.s.profiles {
		if q.VerifiedOnly && !p.IsVerified {
			continue
		}
		if q.Query != "" && !strings.Contains(strings.ToLower(p.DisplayName), strings.ToLower(q.Query)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f fakeConsultants) ListDocuments(_ context.Context, profileID uint) ([]models.ConsultantDocument, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.ConsultantDocument
	for _, d := range f.s.docs {
		if d.ConsultantProfileID == profileID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeConsultants) FindDocument(_ context.Context, id uint) (*models.ConsultantDocument, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f fakeConsultants) CreateDocument(_ context.Context, d *models.ConsultantDocument) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d.ID = f.s.nextID()
	cp := *d
	f.s.docs[d.ID] = &cp
	return nil
}

func (f fakeConsultants) DeleteDocument(_ context.Context, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.docs, id)
	return nil
}

// collaborators

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func (m *recordingMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type recordingEvents struct {
	mu        sync.Mutex
	published []models.ChatMessage
}

func (e *recordingEvents) PublishMessage(_ context.Context, msg *models.ChatMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, *msg)
	return nil
}

func (e *recordingEvents) Subscribe(context.Context, uint) (<-chan cache.RoomEvent, error) {
	return nil, cache.ErrRealtimeDisabled
}

type memDocumentStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memDocumentStore) Upload(_ context.Context, file io.Reader, publicID, folder string) (string, error) {
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[publicID] = b
	return "https://files.test/" + folder + "/" + publicID, nil
}

func (m *memDocumentStore) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, publicID)
	return nil
}

func (m *memDocumentStore) Bucket() string { return "test-bucket" }
