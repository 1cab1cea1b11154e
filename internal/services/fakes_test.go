package services

import (
	"context"
	"errors"
	"sync"

	"github.com/csmith1188/digipogs/internal/models"
	repo "github.com/csmith1188/digipogs/internal/repository"
)

// fakeStore backs in-memory implementations of every repository interface.
// WithTx holds the store lock for the whole mutation, so interleaved spends
// see committed state only, like the real serializable transactions.
type fakeStore struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	pools      map[int64]*models.Pool
	members    map[int64][]models.PoolMember
	classes    map[int64]*models.Class
	classRoles map[int64]map[int64]int // class id -> user id -> permissions
	txs        []models.Transaction
	audits     []models.AuditLog

	nextPoolID     int64
	failTxLog      bool
	failMutate     bool
	failPoolCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[int64]*models.User),
		pools:      map[int64]*models.Pool{models.DevPoolID: {ID: models.DevPoolID, Name: "dev"}},
		members:    make(map[int64][]models.PoolMember),
		classes:    make(map[int64]*models.Class),
		classRoles: make(map[int64]map[int64]int),
		nextPoolID: 1,
	}
}

func (f *fakeStore) addUser(u models.User) { f.users[u.ID] = &u }

func (f *fakeStore) addPool(p models.Pool, members ...models.PoolMember) {
	f.pools[p.ID] = &p
	f.members[p.ID] = members
	if p.ID >= f.nextPoolID {
		f.nextPoolID = p.ID + 1
	}
}

func (f *fakeStore) addClass(c models.Class, roles map[int64]int) {
	f.classes[c.ID] = &c
	f.classRoles[c.ID] = roles
}

func (f *fakeStore) userBalance(id int64) int64 { return f.users[id].Digipogs }
func (f *fakeStore) poolBalance(id int64) int64 { return f.pools[id].Amount }

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) Create(ctx context.Context, username, email, passwordHash string, permissions int) (models.User, error) {
	panic("not used in tests")
}

func (f fakeUsers) GetByID(ctx context.Context, id int64) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return *u, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (f fakeUsers) SetPin(ctx context.Context, id int64, pinHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.PinHash = &pinHash
	return nil
}

type fakePools struct{ *fakeStore }

func (f fakePools) CreateWithOwner(ctx context.Context, ownerID int64, name, description string) (models.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Atomic like the real repo: on failure neither row appears.
	if f.failPoolCreate {
		return models.Pool{}, errors.New("membership insert failed")
	}
	p := models.Pool{ID: f.nextPoolID, Name: name, Description: description}
	f.nextPoolID++
	f.pools[p.ID] = &p
	f.members[p.ID] = []models.PoolMember{{PoolID: p.ID, UserID: ownerID, Owner: true}}
	return p, nil
}

func (f fakePools) GetByID(ctx context.Context, id int64) (models.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[id]
	if !ok {
		return models.Pool{}, models.ErrNotFound
	}
	return *p, nil
}

func (f fakePools) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pools[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.pools, id)
	delete(f.members, id)
	return nil
}

func (f fakePools) Members(ctx context.Context, poolID int64) ([]models.PoolMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PoolMember(nil), f.members[poolID]...), nil
}

func (f fakePools) IsMember(ctx context.Context, poolID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[poolID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakePools) IsOwner(ctx context.Context, poolID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[poolID] {
		if m.UserID == userID {
			return m.Owner, nil
		}
	}
	return false, nil
}

func (f fakePools) CountOwned(ctx context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ms := range f.members {
		for _, m := range ms {
			if m.UserID == userID && m.Owner {
				n++
			}
		}
	}
	return n, nil
}

func (f fakePools) AddMember(ctx context.Context, poolID, userID int64, owner bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.members[poolID] {
		if m.UserID == userID {
			f.members[poolID][i].Owner = owner
			return nil
		}
	}
	f.members[poolID] = append(f.members[poolID], models.PoolMember{PoolID: poolID, UserID: userID, Owner: owner})
	return nil
}

func (f fakePools) RemoveMember(ctx context.Context, poolID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.members[poolID] {
		if m.UserID == userID {
			f.members[poolID] = append(f.members[poolID][:i], f.members[poolID][i+1:]...)
			return nil
		}
	}
	return models.ErrNotMember
}

func (f fakePools) SetOwnerFlag(ctx context.Context, poolID, userID int64, owner bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.members[poolID] {
		if m.UserID == userID {
			f.members[poolID][i].Owner = owner
			return nil
		}
	}
	return models.ErrNotMember
}

type fakeClasses struct{ *fakeStore }

func (f fakeClasses) GetByID(ctx context.Context, id int64) (models.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.classes[id]
	if !ok {
		return models.Class{}, models.ErrNotFound
	}
	return *c, nil
}

func (f fakeClasses) GetByKey(ctx context.Context, key string) (models.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.classes {
		if c.Key == key {
			return *c, nil
		}
	}
	return models.Class{}, models.ErrNotFound
}

func (f fakeClasses) RoleOf(ctx context.Context, classID, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	roles, ok := f.classRoles[classID]
	if !ok {
		return 0, models.ErrNotFound
	}
	role, ok := roles[userID]
	if !ok {
		return 0, models.ErrNotFound
	}
	return role, nil
}

func (f fakeClasses) Members(ctx context.Context, classID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int64
	for id := range f.classRoles[classID] {
		out = append(out, id)
	}
	return out, nil
}

func (f fakeClasses) TeachesUser(ctx context.Context, teacherID, studentID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for classID, roles := range f.classRoles {
		if _, enrolled := roles[studentID]; !enrolled {
			continue
		}
		if f.classes[classID].OwnerID == teacherID {
			return true, nil
		}
		if roles[teacherID] >= models.TeacherPermissions {
			return true, nil
		}
	}
	return false, nil
}

type fakeTrx struct{ *fakeStore }

func (f fakeTrx) Record(ctx context.Context, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTxLog {
		return errors.New("log write failed")
	}
	f.txs = append(f.txs, tx)
	return nil
}

func (f fakeTrx) ListForUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Transaction(nil), f.txs...), nil
}

type fakeAudit struct{ *fakeStore }

func (f fakeAudit) Create(l models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, l)
	return nil
}

type fakeLedger struct{ *fakeStore }

func (f fakeLedger) WithTx(ctx context.Context, fn func(repo.LedgerTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutate {
		return errors.New("database down")
	}
	userSnap := make(map[int64]int64, len(f.users))
	for id, u := range f.users {
		userSnap[id] = u.Digipogs
	}
	poolSnap := make(map[int64]int64, len(f.pools))
	for id, p := range f.pools {
		poolSnap[id] = p.Amount
	}
	if err := fn(fakeTx{f.fakeStore}); err != nil {
		for id, bal := range userSnap {
			f.users[id].Digipogs = bal
		}
		for id, bal := range poolSnap {
			f.pools[id].Amount = bal
		}
		return err
	}
	return nil
}

// fakeTx mutates under the lock already held by WithTx.
type fakeTx struct{ f *fakeStore }

func (t fakeTx) CreditUser(ctx context.Context, id, amount int64) error {
	u, ok := t.f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Digipogs += amount
	return nil
}

func (t fakeTx) DebitUser(ctx context.Context, id, amount int64) error {
	u, ok := t.f.users[id]
	if !ok || u.Digipogs < amount {
		return models.ErrInsufficientFunds
	}
	u.Digipogs -= amount
	return nil
}

func (t fakeTx) CreditPool(ctx context.Context, id, amount int64) error {
	p, ok := t.f.pools[id]
	if !ok {
		return models.ErrNotFound
	}
	p.Amount += amount
	return nil
}

func (t fakeTx) DebitPool(ctx context.Context, id, amount int64) error {
	p, ok := t.f.pools[id]
	if !ok || p.Amount < amount {
		return models.ErrInsufficientFunds
	}
	p.Amount -= amount
	return nil
}
