package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memStore is an in-memory stand-in for every repository.
type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*model.User
	accounts     map[uuid.UUID]*model.Account
	transactions []model.Transaction
	uploads      map[uuid.UUID]*model.Upload
	snapshots    map[string]model.ScoreSnapshot
	findErr      error
	batchErr     error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]*model.User{},
		accounts:  map[uuid.UUID]*model.Account{},
		uploads:   map[uuid.UUID]*model.Upload{},
		snapshots: map[string]model.ScoreSnapshot{},
	}
}

func (m *memStore) addUser(email string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: uuid.New(), Email: email, Name: "Test", CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addAccount(userID uuid.UUID, name string, connected bool) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &model.Account{ID: uuid.New(), UserID: userID, SourceName: name, Connected: connected}
	m.accounts[a.ID] = a
	return a
}

// UserStore

func (m *memStore) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return model.ErrEmailTaken
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateName(ctx context.Context, id uuid.UUID, name string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u.Name = name
	cp := *u
	return &cp, nil
}

func (m *memStore) ListWithTransactions(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, t := range m.transactions {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}
	return ids, nil
}

// accounts view; methods are on a wrapper to avoid clashing with UserStore.Create.
type memAccounts struct{ *memStore }

func (m memAccounts) Create(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m memAccounts) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, model.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m memAccounts) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Account{}
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m memAccounts) CountConnected(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.accounts {
		if a.UserID == userID && a.Connected {
			n++
		}
	}
	return n, nil
}

func (m memAccounts) MarkUploaded(ctx context.Context, id uuid.UUID, blobKey string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	a.Connected = true
	a.LastUploaded = &at
	a.FilePath = &blobKey
	return nil
}

// TransactionStore

func (m *memStore) CreateBatch(ctx context.Context, transactions []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return m.batchErr
	}
	m.transactions = append(m.transactions, transactions...)
	return nil
}

func (m *memStore) match(f model.TransactionFilter) []model.Transaction {
	var out []model.Transaction
	for _, t := range m.transactions {
		if t.UserID != f.UserID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.StartDate != nil && t.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && t.Date.After(*f.EndDate) {
			continue
		}
		if f.EndBefore != nil && !t.Date.Before(*f.EndBefore) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (m *memStore) Find(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := m.match(f)
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return []model.Transaction{}, nil
		}
		out = out[f.Offset:]
		if len(out) > f.Limit {
			out = out[:f.Limit]
		}
	}
	return out, nil
}

func (m *memStore) Count(ctx context.Context, f model.TransactionFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.match(f))), nil
}

func (m *memStore) CountAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.Count(ctx, model.TransactionFilter{UserID: userID})
}

func (m *memStore) SumAmount(ctx context.Context, f model.TransactionFilter) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, t := range m.match(f) {
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

// UploadStore

type memUploads struct{ *memStore }

func (m memUploads) Create(ctx context.Context, u *model.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.uploads[u.ID] = &cp
	return nil
}

func (m memUploads) GetByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[id]
	if !ok {
		return nil, model.ErrUploadNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUploads) Finish(ctx context.Context, u *model.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uploads[u.ID]; !ok {
		return model.ErrUploadNotFound
	}
	cp := *u
	m.uploads[u.ID] = &cp
	return nil
}

func (m memUploads) Complete(ctx context.Context, u *model.Upload, transactions []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.uploads[u.ID]
	if !ok {
		return model.ErrUploadNotFound
	}
	if stored.Status != model.UploadStatusPending {
		return model.ErrUploadHandled
	}
	if m.batchErr != nil {
		return m.batchErr
	}
	m.transactions = append(m.transactions, transactions...)
	cp := *u
	m.uploads[u.ID] = &cp
	return nil
}

// SnapshotStore

func (m *memStore) Upsert(ctx context.Context, s *model.ScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.UserID.String()+"/"+s.Month] = *s
	return nil
}

func (m *memStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.ScoreSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ScoreSnapshot{}
	for _, s := range m.snapshots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) addTx(userID uuid.UUID, kind model.TransactionType, amount string, date time.Time, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, model.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		Amount:    decimal.RequireFromString(amount),
		Type:      kind,
		Category:  category,
		CreatedAt: date,
	})
}
