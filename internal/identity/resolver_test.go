package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDirectory struct {
	accounts    map[int64]*Account
	nextID      int64
	createCalls int
	createErr   error
	onCreate    func()
	attachCalls int
	attachErr   error
	onAttach    func()
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{accounts: map[int64]*Account{}, nextID: 1}
}

func (f *fakeDirectory) add(acc Account) *Account {
	if acc.ID == 0 {
		acc.ID = f.nextID
	}
	if acc.ID >= f.nextID {
		f.nextID = acc.ID + 1
	}
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	f.accounts[acc.ID] = &acc
	return &acc
}

func (f *fakeDirectory) FindByID(_ context.Context, id int64) (*Account, error) {
	if acc, ok := f.accounts[id]; ok {
		return acc, nil
	}
	return nil, ErrNoAccount
}

func (f *fakeDirectory) FindByExternalID(_ context.Context, externalID string) (*Account, error) {
	for _, acc := range f.accounts {
		if acc.ExternalID != nil && *acc.ExternalID == externalID {
			return acc, nil
		}
	}
	return nil, ErrNoAccount
}

func (f *fakeDirectory) FindByEmail(_ context.Context, email string) (*Account, error) {
	for _, acc := range f.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}
	return nil, ErrNoAccount
}

func (f *fakeDirectory) Create(_ context.Context, acc NewAccount) (*Account, error) {
	f.createCalls++
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.accounts {
		if existing.Email == acc.Email || (existing.ExternalID != nil && *existing.ExternalID == acc.ExternalID) {
			return nil, ErrDuplicateAccount
		}
	}
	ext := acc.ExternalID
	return f.add(Account{ExternalID: &ext, Email: acc.Email, Role: RoleClient, FirstName: acc.FirstName, LastName: acc.LastName}), nil
}

func (f *fakeDirectory) AttachExternalID(_ context.Context, id int64, externalID string) error {
	f.attachCalls++
	if f.onAttach != nil {
		f.onAttach()
	}
	if f.attachErr != nil {
		return f.attachErr
	}
	acc, ok := f.accounts[id]
	if !ok {
		return ErrNoAccount
	}
	acc.ExternalID = &externalID
	return nil
}

type fakeProfiles struct {
	profiles map[string]*Profile
	err      error
	calls    int
}

func (f *fakeProfiles) FetchProfile(_ context.Context, subject string) (*Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[subject]; ok {
		return p, nil
	}
	return nil, errors.New("unknown subject")
}

func newTestResolver(dir *fakeDirectory, profiles *fakeProfiles) (*Resolver, *TokenCodec) {
	codec := NewTokenCodec(TokenConfig{Secret: []byte("resolver-test"), TTL: time.Hour})
	if profiles == nil {
		profiles = &fakeProfiles{}
	}
	return NewResolver(dir, profiles, codec, zap.NewNop().Sugar()), codec
}

func TestResolve_SelfIssuedToken(t *testing.T) {
	dir := newFakeDirectory()
	acc := dir.add(Account{ID: 42, Email: "team@example.com", Role: RoleDietitianTeam})
	resolver, codec := newTestResolver(dir, nil)

	raw, err := codec.Mint(acc.ID, acc.Email, acc.Role)
	require.NoError(t, err)

	id := resolver.Resolve(context.Background(), raw, "")
	require.True(t, id.Authenticated())
	assert.Equal(t, int64(42), *id.UserID)
	assert.Equal(t, RoleDietitianTeam, *id.Role)
	assert.Equal(t, SourceToken, id.Source)
}

func TestResolve_ExpiredTokenBehavesLikeNoToken(t *testing.T) {
	dir := newFakeDirectory()
	acc := dir.add(Account{ID: 42, Email: "team@example.com", Role: RoleDietitianTeam})
	resolver, _ := newTestResolver(dir, nil)

	expiredCodec := NewTokenCodec(TokenConfig{Secret: []byte("resolver-test"), TTL: -time.Minute})
	raw, err := expiredCodec.Mint(acc.ID, acc.Email, acc.Role)
	require.NoError(t, err)

	// no other credential: identical to an anonymous request
	id := resolver.Resolve(context.Background(), raw, "")
	assert.False(t, id.Authenticated())
	assert.Equal(t, SourceNone, id.Source)
}

func TestResolve_InvalidTokenFallsThroughToProvider(t *testing.T) {
	dir := newFakeDirectory()
	ext := "auth0|abc"
	dir.add(Account{ID: 9, ExternalID: &ext, Email: "linked@example.com", Role: RoleDietitian})
	resolver, _ := newTestResolver(dir, nil)

	id := resolver.Resolve(context.Background(), "not-a-jwt", "auth0|abc")
	require.True(t, id.Authenticated())
	assert.Equal(t, int64(9), *id.UserID)
	assert.Equal(t, SourceProvider, id.Source)
}

func TestResolve_TokenForUnknownUserFallsThrough(t *testing.T) {
	dir := newFakeDirectory()
	resolver, codec := newTestResolver(dir, nil)

	raw, err := codec.Mint(999, "gone@example.com", RoleClient)
	require.NoError(t, err)

	id := resolver.Resolve(context.Background(), raw, "")
	assert.False(t, id.Authenticated())
}

func TestResolve_FirstSightProvisionsOnce(t *testing.T) {
	dir := newFakeDirectory()
	first := "Nora"
	profiles := &fakeProfiles{profiles: map[string]*Profile{
		"auth0|new": {Subject: "auth0|new", Email: "nora@example.com", FirstName: &first},
	}}
	resolver, _ := newTestResolver(dir, profiles)

	id := resolver.Resolve(context.Background(), "", "auth0|new")
	require.True(t, id.Authenticated())
	assert.Equal(t, RoleClient, *id.Role, "provisioned accounts get the lowest tier")
	assert.Equal(t, 1, dir.createCalls)

	acc, err := dir.FindByExternalID(context.Background(), "auth0|new")
	require.NoError(t, err)
	require.NotNil(t, acc.FirstName)
	assert.Equal(t, "Nora", *acc.FirstName)

	// second identical request finds the row instead of creating another
	again := resolver.Resolve(context.Background(), "", "auth0|new")
	require.True(t, again.Authenticated())
	assert.Equal(t, *id.UserID, *again.UserID)
	assert.Equal(t, 1, dir.createCalls)
	assert.Equal(t, 1, profiles.calls, "profile fetched only on first sight")
}

func TestResolve_LinksExistingEmailAccount(t *testing.T) {
	dir := newFakeDirectory()
	existing := dir.add(Account{Email: "maria@example.com", Role: RoleDietitian})
	profiles := &fakeProfiles{profiles: map[string]*Profile{
		"auth0|maria": {Subject: "auth0|maria", Email: "maria@example.com"},
	}}
	resolver, _ := newTestResolver(dir, profiles)

	id := resolver.Resolve(context.Background(), "", "auth0|maria")
	require.True(t, id.Authenticated())
	assert.Equal(t, existing.ID, *id.UserID)
	assert.Equal(t, RoleDietitian, *id.Role, "linking keeps the row's role")
	assert.Equal(t, 0, dir.createCalls)
	assert.Equal(t, 1, dir.attachCalls)

	linked, err := dir.FindByExternalID(context.Background(), "auth0|maria")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
}

func TestResolve_EmailLinkedToOtherSubjectRejected(t *testing.T) {
	dir := newFakeDirectory()
	other := "auth0|other"
	dir.add(Account{ID: 1, ExternalID: &other, Email: "shared@example.com", Role: RoleAdmin})
	profiles := &fakeProfiles{profiles: map[string]*Profile{
		"auth0|mine": {Subject: "auth0|mine", Email: "shared@example.com"},
	}}
	resolver, _ := newTestResolver(dir, profiles)

	// an email match alone never grants access to a row that belongs to a
	// different external identity
	id := resolver.Resolve(context.Background(), "", "auth0|mine")
	assert.False(t, id.Authenticated())
	assert.Equal(t, SourceNone, id.Source)
	assert.Equal(t, 0, dir.attachCalls)
	assert.Equal(t, 0, dir.createCalls)
}

func TestResolve_LinkingRaceAcceptsOwnSubjectOnly(t *testing.T) {
	mk := func(winner string) (*fakeDirectory, *Resolver) {
		dir := newFakeDirectory()
		row := dir.add(Account{Email: "racer@example.com", Role: RoleDietitian})
		profiles := &fakeProfiles{profiles: map[string]*Profile{
			"auth0|mine": {Subject: "auth0|mine", Email: "racer@example.com"},
		}}
		resolver, _ := newTestResolver(dir, profiles)
		// a concurrent request wins the attach just before ours lands
		dir.attachErr = ErrNoAccount
		dir.onAttach = func() {
			dir.accounts[row.ID].ExternalID = &winner
		}
		return dir, resolver
	}

	// winner is us: the row is accepted
	dir, resolver := mk("auth0|mine")
	id := resolver.Resolve(context.Background(), "", "auth0|mine")
	require.True(t, id.Authenticated())
	assert.Equal(t, RoleDietitian, *id.Role)
	assert.Equal(t, 1, dir.attachCalls)

	// winner is someone else: degrade to anonymous
	_, resolver = mk("auth0|other")
	id = resolver.Resolve(context.Background(), "", "auth0|mine")
	assert.False(t, id.Authenticated())
}

func TestResolve_ProviderOutageDegradesToAnonymous(t *testing.T) {
	dir := newFakeDirectory()
	profiles := &fakeProfiles{err: errors.New("upstream timeout")}
	resolver, _ := newTestResolver(dir, profiles)

	id := resolver.Resolve(context.Background(), "", "auth0|whoever")
	assert.False(t, id.Authenticated())
	assert.Equal(t, SourceNone, id.Source)
	assert.Equal(t, 0, dir.createCalls)
}

func TestResolve_DuplicateInsertRaceRefetches(t *testing.T) {
	dir := newFakeDirectory()
	profiles := &fakeProfiles{profiles: map[string]*Profile{
		"auth0|racer": {Subject: "auth0|racer", Email: "racer@example.com"},
	}}
	resolver, _ := newTestResolver(dir, profiles)

	// the other instance wins the insert between our lookups and our create:
	// its row lands exactly when our insert hits the unique constraint
	var winner *Account
	dir.createErr = ErrDuplicateAccount
	dir.onCreate = func() {
		ext := "auth0|racer"
		winner = dir.add(Account{ExternalID: &ext, Email: "racer@example.com", Role: RoleClient})
	}

	id := resolver.Resolve(context.Background(), "", "auth0|racer")
	require.True(t, id.Authenticated())
	require.NotNil(t, winner)
	assert.Equal(t, winner.ID, *id.UserID)
	assert.Equal(t, 1, dir.createCalls)
}

func TestResolve_NoCredentials(t *testing.T) {
	resolver, _ := newTestResolver(newFakeDirectory(), nil)

	id := resolver.Resolve(context.Background(), "", "")
	assert.Nil(t, id.UserID)
	assert.Nil(t, id.Role)
	assert.Equal(t, SourceNone, id.Source)
}
