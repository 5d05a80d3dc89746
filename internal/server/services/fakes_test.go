package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/mailer"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/otps"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/users"
)

func testLogger() logging.Logger {
	return logging.NewJSON(io.Discard, "error")
}

// --- users ---

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	seq     int
	getErr  error
}

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrorConflict
	}
	r.seq++
	c := *u
	c.ID = fmt.Sprintf("u%d", r.seq)
	r.byEmail[c.Email] = c
	return &c, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- otps ---

type memOTPs struct {
	mu      sync.Mutex
	byEmail map[string]models.OTP
	writes  int
}

func (r *memOTPs) Upsert(_ context.Context, o *models.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.byEmail[o.Email] = *o
	return nil
}

func (r *memOTPs) Find(_ context.Context, email, code string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byEmail[email]
	if !ok || o.Code != code {
		return nil, common.ErrorNotFound
	}
	return &o, nil
}

func (r *memOTPs) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
	return nil
}

// --- faculties ---

type memFaculties struct {
	mu        sync.Mutex
	byID      map[string]models.Faculty
	order     []string
	conflicts int
	updateErr error
	updates   int
}

func cloneFaculty(f models.Faculty) models.Faculty {
	if f.Reviews != nil {
		f.Reviews = append([]models.Review(nil), f.Reviews...)
	}
	return f
}

func (r *memFaculties) Find(_ context.Context, filter faculties.Filter) ([]models.Faculty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Faculty{}
	for _, id := range r.order {
		f := r.byID[id]
		if filter.ID != "" && f.ID != filter.ID {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Department != "" && !strings.Contains(strings.ToLower(f.Department), strings.ToLower(filter.Department)) {
			continue
		}
		out = append(out, cloneFaculty(f))
	}
	return out, nil
}

func (r *memFaculties) GetByID(_ context.Context, id string) (*models.Faculty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := cloneFaculty(f)
	return &c, nil
}

func (r *memFaculties) UpdateReviews(_ context.Context, f *models.Faculty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.conflicts > 0 {
		r.conflicts--
		return common.ErrVersionConflict
	}
	cur, ok := r.byID[f.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if cur.Version != f.Version {
		return common.ErrVersionConflict
	}
	f.Version++
	cur.Reviews = append([]models.Review(nil), f.Reviews...)
	cur.Version = f.Version
	r.byID[f.ID] = cur
	return nil
}

func (r *memFaculties) Insert(_ context.Context, f *models.Faculty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		f.ID = fmt.Sprintf("f%d", len(r.order)+1)
	}
	r.byID[f.ID] = cloneFaculty(*f)
	r.order = append(r.order, f.ID)
	return nil
}

func (r *memFaculties) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.order)), nil
}

func (r *memFaculties) put(fs ...models.Faculty) {
	for _, f := range fs {
		_ = r.Insert(context.Background(), &f)
	}
}

// --- manager ---

type fakeManager struct {
	users     *memUsers
	otps      *memOTPs
	faculties *memFaculties
	ids       int
	txCalls   int
}

var _ repomanager.RepositoryManager = (*fakeManager)(nil)

func newFakeManager() *fakeManager {
	return &fakeManager{
		users:     &memUsers{byEmail: map[string]models.User{}},
		otps:      &memOTPs{byEmail: map[string]models.OTP{}},
		faculties: &memFaculties{byID: map[string]models.Faculty{}},
	}
}

func (m *fakeManager) Users() users.Repository         { return m.users }
func (m *fakeManager) OTPs() otps.Repository           { return m.otps }
func (m *fakeManager) Faculties() faculties.Repository { return m.faculties }

func (m *fakeManager) NewID() string {
	m.ids++
	return fmt.Sprintf("id-%d", m.ids)
}

func (m *fakeManager) RunMigrations(context.Context) error { return nil }

func (m *fakeManager) InTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	m.txCalls++
	return fn(ctx, m)
}

func (m *fakeManager) Close(context.Context) error { return nil }

// --- notifier ---

type fakeNotifier struct {
	sent []mailer.Email
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, e mailer.Email) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, e)
	return nil
}
