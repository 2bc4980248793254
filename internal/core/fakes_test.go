package core

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/events"
	"refvault-backend-go/internal/models"
)

var errSubscribeFailed = errors.New("subscribe failed")

// In-memory repository fakes for service tests. Each fake holds copies of the
// models it stores so tests cannot mutate repository state through retained
// pointers, and exposes error knobs to simulate transport failures.

type fakeVaultRepo struct {
	mu     sync.Mutex
	vaults map[string]*models.Vault
	hidden map[string]bool // IDs the read policy hides: GetByID reports ErrNotFound
	getErr error           // non-nil fails every GetByID
	onGet  func()          // invoked at the top of GetByID, if set
}

func newFakeVaultRepo() *fakeVaultRepo {
	return &fakeVaultRepo{
		vaults: make(map[string]*models.Vault),
		hidden: make(map[string]bool),
	}
}

func (f *fakeVaultRepo) Create(_ context.Context, vault *models.Vault) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vault.ID == "" {
		vault.ID = uuid.NewString()
	}
	cp := *vault
	f.vaults[vault.ID] = &cp
	return vault.ID, nil
}

func (f *fakeVaultRepo) GetByID(_ context.Context, vaultID string) (*models.Vault, error) {
	if f.onGet != nil {
		f.onGet()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	vault, ok := f.vaults[vaultID]
	if !ok || f.hidden[vaultID] {
		return nil, db.ErrNotFound
	}
	cp := *vault
	return &cp, nil
}

func (f *fakeVaultRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Vault
	for _, vault := range f.vaults {
		if vault.OwnerID == ownerID {
			cp := *vault
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeVaultRepo) Update(_ context.Context, vault *models.Vault) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vaults[vault.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *vault
	f.vaults[vault.ID] = &cp
	return nil
}

func (f *fakeVaultRepo) Delete(_ context.Context, vaultID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vaults, vaultID)
	return nil
}

func (f *fakeVaultRepo) IncrementViewCount(_ context.Context, vaultID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	vault, ok := f.vaults[vaultID]
	if !ok {
		return db.ErrNotFound
	}
	vault.ViewCount++
	return nil
}

func (f *fakeVaultRepo) IncrementDownloadCount(_ context.Context, vaultID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	vault, ok := f.vaults[vaultID]
	if !ok {
		return db.ErrNotFound
	}
	vault.DownloadCount++
	return nil
}

type fakeShareRepo struct {
	mu        sync.Mutex
	shares    map[string]*models.Share
	findErr   error // non-nil fails the Find* lookups
	createErr error // non-nil fails Create
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: make(map[string]*models.Share)}
}

func (f *fakeShareRepo) Create(_ context.Context, share *models.Share) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	if share.ID == "" {
		share.ID = uuid.NewString()
	}
	cp := *share
	f.shares[share.ID] = &cp
	return share.ID, nil
}

func (f *fakeShareRepo) GetByID(_ context.Context, shareID string) (*models.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	share, ok := f.shares[shareID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *share
	return &cp, nil
}

func (f *fakeShareRepo) Update(_ context.Context, share *models.Share) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shares[share.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *share
	f.shares[share.ID] = &cp
	return nil
}

func (f *fakeShareRepo) Delete(_ context.Context, shareID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.shares, shareID)
	return nil
}

func (f *fakeShareRepo) ListByVault(_ context.Context, vaultID string) ([]*models.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Share
	for _, share := range f.shares {
		if share.VaultID == vaultID {
			cp := *share
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeShareRepo) FindByVaultAndUser(_ context.Context, vaultID, userID string) (*models.Share, error) {
	return f.findNewest(func(s *models.Share) bool {
		return s.VaultID == vaultID && s.UserID == userID && userID != ""
	})
}

func (f *fakeShareRepo) FindByVaultAndEmail(_ context.Context, vaultID, email string) (*models.Share, error) {
	return f.findNewest(func(s *models.Share) bool {
		return s.VaultID == vaultID && s.Email == email && email != ""
	})
}

func (f *fakeShareRepo) findNewest(match func(*models.Share) bool) (*models.Share, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var hits []*models.Share
	for _, share := range f.shares {
		if match(share) {
			hits = append(hits, share)
		}
	}
	if len(hits) == 0 {
		return nil, db.ErrNotFound
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })
	cp := *hits[0]
	return &cp, nil
}

func (f *fakeShareRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shares)
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*models.AccessRequest
	findErr  error // non-nil fails FindActiveByVaultAndUser
	delErr   error // non-nil fails DeleteByVaultAndUser
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.AccessRequest)}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *models.AccessRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	cp := *req
	f.requests[req.ID] = &cp
	return req.ID, nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, requestID string) (*models.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) Update(_ context.Context, req *models.AccessRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[req.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) ListByVault(_ context.Context, vaultID string, statuses []string) ([]*models.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AccessRequest
	for _, req := range f.requests {
		if req.VaultID != vaultID {
			continue
		}
		if len(statuses) > 0 {
			matched := false
			for _, st := range statuses {
				if req.Status == st {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRequestRepo) FindActiveByVaultAndUser(_ context.Context, vaultID, userID string) (*models.AccessRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var hits []*models.AccessRequest
	for _, req := range f.requests {
		if req.VaultID == vaultID && req.UserID == userID && req.Status != models.RequestRejected {
			hits = append(hits, req)
		}
	}
	if len(hits) == 0 {
		return nil, db.ErrNotFound
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })
	cp := *hits[0]
	return &cp, nil
}

func (f *fakeRequestRepo) ExistsByVault(_ context.Context, vaultID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.VaultID == vaultID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestRepo) DeleteByVaultAndUser(_ context.Context, vaultID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	for id, req := range f.requests {
		if req.VaultID == vaultID && req.UserID == userID {
			delete(f.requests, id)
		}
	}
	return nil
}

func (f *fakeRequestRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakePublicationRepo struct {
	mu       sync.Mutex
	byVault  map[string]int
	existErr error
}

func newFakePublicationRepo() *fakePublicationRepo {
	return &fakePublicationRepo{byVault: make(map[string]int)}
}

func (f *fakePublicationRepo) ExistsByVault(_ context.Context, vaultID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existErr != nil {
		return false, f.existErr
	}
	return f.byVault[vaultID] > 0, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, logEntry models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, logEntry)
	return nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// recordingPublisher captures emitted access events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AccessEvent
}

func (p *recordingPublisher) Publish(event events.AccessEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeChangeFeed lets tests push change events into armed subscriptions.
type fakeChangeFeed struct {
	mu     sync.Mutex
	subs   map[string][]*fakeFeedSub // keyed by collection
	failOn string                    // collection whose Subscribe call fails
}

type fakeFeedSub struct {
	feed       *fakeChangeFeed
	collection string
	onEvent    func(db.ChangeEvent)
	active     bool
}

func newFakeChangeFeed() *fakeChangeFeed {
	return &fakeChangeFeed{subs: make(map[string][]*fakeFeedSub)}
}

func (f *fakeChangeFeed) SubscribeVault(ctx context.Context, vaultID string, onEvent func(db.ChangeEvent)) (db.FeedHandle, error) {
	return f.subscribe("vaults", onEvent)
}

func (f *fakeChangeFeed) SubscribeShares(ctx context.Context, vaultID string, onEvent func(db.ChangeEvent)) (db.FeedHandle, error) {
	return f.subscribe("vault_shares", onEvent)
}

func (f *fakeChangeFeed) SubscribeRequests(ctx context.Context, vaultID string, onEvent func(db.ChangeEvent)) (db.FeedHandle, error) {
	return f.subscribe("access_requests", onEvent)
}

func (f *fakeChangeFeed) subscribe(collection string, onEvent func(db.ChangeEvent)) (db.FeedHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == collection {
		return nil, errSubscribeFailed
	}
	sub := &fakeFeedSub{feed: f, collection: collection, onEvent: onEvent, active: true}
	f.subs[collection] = append(f.subs[collection], sub)
	return sub, nil
}

func (s *fakeFeedSub) Unsubscribe() {
	s.feed.mu.Lock()
	s.active = false
	s.feed.mu.Unlock()
}

// emit delivers an event to every active subscription on the collection.
func (f *fakeChangeFeed) emit(collection string, event db.ChangeEvent) {
	f.mu.Lock()
	var targets []func(db.ChangeEvent)
	for _, sub := range f.subs[collection] {
		if sub.active {
			targets = append(targets, sub.onEvent)
		}
	}
	f.mu.Unlock()
	for _, deliver := range targets {
		deliver(event)
	}
}

func (f *fakeChangeFeed) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, subs := range f.subs {
		for _, sub := range subs {
			if sub.active {
				n++
			}
		}
	}
	return n
}
