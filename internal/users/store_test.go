package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtracker/internal/database"
	"jobtracker/internal/database/dbtest"
	"jobtracker/internal/errcode"
	"jobtracker/internal/jobs"
)

func TestRegister_StoresHashNotPassword(t *testing.T) {
	db := dbtest.New(t)
	store := NewStore(db)

	user, err := store.Register(context.Background(), "alice", "alice@example.com", "s3cret!")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)
	assert.Nil(t, user.LastLogin)

	var stored database.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotContains(t, stored.PasswordHash, "s3cret!")
}

func TestRegister_Conflicts(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	_, err := store.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	_, err = store.Register(ctx, "alice2", "alice@example.com", "pw")
	assert.Equal(t, errcode.Conflict, errcode.CodeOf(err), "duplicate email")

	_, err = store.Register(ctx, "alice", "other@example.com", "pw")
	assert.Equal(t, errcode.Conflict, errcode.CodeOf(err), "duplicate username")
}

func TestRegister_MissingFields(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	for _, in := range [][3]string{{"", "a@b.c", "pw"}, {"a", "", "pw"}, {"a", "a@b.c", ""}} {
		_, err := store.Register(ctx, in[0], in[1], in[2])
		assert.Equal(t, errcode.InvalidInput, errcode.CodeOf(err))
	}
}

func TestAuthenticate(t *testing.T) {
	loginAt := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	store := NewStore(dbtest.New(t)).WithClock(func() time.Time { return loginAt })
	ctx := context.Background()

	registered, err := store.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	user, err := store.Authenticate(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, user.LastLogin)
	assert.True(t, loginAt.Equal(*user.LastLogin))

	profile, err := store.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.LastLogin)
	assert.True(t, loginAt.Equal(*profile.LastLogin))

	_, err = store.Authenticate(ctx, "alice@example.com", "wrong")
	assert.Equal(t, errcode.InvalidCredentials, errcode.CodeOf(err))

	_, err = store.Authenticate(ctx, "nobody@example.com", "pw")
	assert.Equal(t, errcode.InvalidCredentials, errcode.CodeOf(err))

	_, err = store.Authenticate(ctx, "", "pw")
	assert.Equal(t, errcode.InvalidInput, errcode.CodeOf(err))
}

func TestUpdateProfile(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	alice, err := store.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	_, err = store.Register(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	updated, err := store.UpdateProfile(ctx, alice.ID, "alice", "alice@new.example.com")
	require.NoError(t, err, "keeping the own username is not a conflict")
	assert.Equal(t, "alice@new.example.com", updated.Email)

	_, err = store.UpdateProfile(ctx, alice.ID, "bob", "alice@new.example.com")
	assert.Equal(t, errcode.Conflict, errcode.CodeOf(err))

	_, err = store.UpdateProfile(ctx, alice.ID, "alice", "bob@example.com")
	assert.Equal(t, errcode.Conflict, errcode.CodeOf(err))

	_, err = store.UpdateProfile(ctx, alice.ID, "", "x@example.com")
	assert.Equal(t, errcode.InvalidInput, errcode.CodeOf(err))

	_, err = store.UpdateProfile(ctx, 9999, "ghost", "ghost@example.com")
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))

	profile, err := store.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@new.example.com", profile.Email)
}

func TestChangePassword(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	alice, err := store.Register(ctx, "alice", "alice@example.com", "old-pw")
	require.NoError(t, err)

	err = store.ChangePassword(ctx, alice.ID, "not-it", "new-pw")
	assert.Equal(t, errcode.InvalidCredentials, errcode.CodeOf(err))

	_, err = store.Authenticate(ctx, "alice@example.com", "old-pw")
	require.NoError(t, err, "old password still works after a failed change")

	err = store.ChangePassword(ctx, alice.ID, "", "new-pw")
	assert.Equal(t, errcode.InvalidInput, errcode.CodeOf(err))

	require.NoError(t, store.ChangePassword(ctx, alice.ID, "old-pw", "new-pw"))

	_, err = store.Authenticate(ctx, "alice@example.com", "old-pw")
	assert.Equal(t, errcode.InvalidCredentials, errcode.CodeOf(err))
	_, err = store.Authenticate(ctx, "alice@example.com", "new-pw")
	assert.NoError(t, err)
}

func TestDelete_CascadesJobs(t *testing.T) {
	db := dbtest.New(t)
	store := NewStore(db)
	repo := jobs.NewRepository(db)
	ctx := context.Background()

	alice, err := store.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	bob, err := store.Register(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	_, err = repo.Create(ctx, alice.ID, jobs.CreateInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, bob.ID, jobs.CreateInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, alice.ID))

	var remaining int64
	require.NoError(t, db.Model(&database.Job{}).Where("user_id = ?", alice.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	bobJobs, err := repo.List(ctx, bob.ID, jobs.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, bobJobs, 1)

	_, err = store.Get(ctx, alice.ID)
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))

	err = store.Delete(ctx, alice.ID)
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))
}

func TestFindByEmail(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	alice, err := store.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	found, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.Equal(t, errcode.NotFound, errcode.CodeOf(err))
}
