package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/token"
)

type memBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
}

func (b *memBlacklist) Add(_ context.Context, tok string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens == nil {
		b.tokens = map[string]time.Duration{}
	}
	b.tokens[tok] = ttl
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, tok string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[tok]
	return ok, nil
}

func newUserService() (UserService, *memUserRepo, *memBlacklist) {
	repo, bl := newMemUserRepo(), &memBlacklist{}
	return NewUserService(repo, bl, token.NewJWTManager("test-secret", 1, 7)), repo, bl
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo, _ := newUserService()

	u, err := svc.Register("carol", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "USER", u.Role)
	stored, err := repo.FindByUsername("carol")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)

	_, err = svc.Register("carol", "another1")
	assert.True(t, errs.IsCode(err, errs.CodeConflict))
	_, err = svc.Register("dave", "123")
	assert.True(t, errs.IsCode(err, errs.CodeInvalidArgument))

	access, refresh, err := svc.Login("carol", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, err = svc.Login("carol", "wrong")
	assert.True(t, errs.IsCode(err, errs.CodeUnauthorized))
	_, _, err = svc.Login("nobody", "secret1")
	assert.True(t, errs.IsCode(err, errs.CodeUnauthorized))
}

func TestRefreshRequiresRefreshToken(t *testing.T) {
	svc, _, _ := newUserService()
	_, err := svc.Register("erin", "secret1")
	require.NoError(t, err)
	access, refresh, err := svc.Login("erin", "secret1")
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(access)
	assert.True(t, errs.IsCode(err, errs.CodeUnauthorized))

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEqual(t, access, newAccess)
	assert.NotEqual(t, refresh, newRefresh)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, bl := newUserService()
	_, err := svc.Register("frank", "secret1")
	require.NoError(t, err)
	access, _, err := svc.Login("frank", "secret1")
	require.NoError(t, err)

	assert.False(t, svc.IsTokenRevoked(context.Background(), access))
	require.NoError(t, svc.Logout(context.Background(), access))
	assert.True(t, svc.IsTokenRevoked(context.Background(), access))
	assert.Greater(t, bl.tokens[access], 50*time.Minute)

	assert.Error(t, svc.Logout(context.Background(), "garbage"))
}

func TestUpdateProfileTrimsFields(t *testing.T) {
	svc, _, _ := newUserService()
	u, err := svc.Register("gina", "secret1")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(u.ID, ProfileUpdate{FullName: "  Gina Lopez ", Email: "gina@example.com", Experience: "5 years of Go"})
	require.NoError(t, err)
	assert.Equal(t, "Gina Lopez", updated.FullName)

	profile, err := svc.GetProfile("gina")
	require.NoError(t, err)
	assert.Equal(t, "5 years of Go", profile.Experience)

	_, err = svc.UpdateProfile(999, ProfileUpdate{})
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))
}
