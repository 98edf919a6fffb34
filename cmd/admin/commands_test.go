package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtracker/internal/api"
	"jobtracker/internal/database"
	"jobtracker/internal/database/dbtest"
	"jobtracker/internal/errcode"
	"jobtracker/internal/jobs"
	"jobtracker/internal/users"
)

type recordingDeleter struct {
	prefixes []string
	err      error
}

func (d *recordingDeleter) DeletePrefix(_ context.Context, prefix string, _ ...string) error {
	d.prefixes = append(d.prefixes, prefix)
	return d.err
}

func TestCreateUser_PrintsUsablePassword(t *testing.T) {
	db := dbtest.New(t)
	store := users.NewStore(db)
	var out bytes.Buffer

	require.NoError(t, createUser(context.Background(), store, " alice ", "alice@example.com", &out))

	var password string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "初始密码: ") {
			password = strings.TrimPrefix(line, "初始密码: ")
		}
	}
	require.NotEmpty(t, password)

	user, err := store.Authenticate(context.Background(), "alice@example.com", password)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	err = createUser(context.Background(), store, "alice", "alice@example.com", &out)
	assert.True(t, errcode.Has(err, errcode.Conflict))
}

func TestDeleteUser_RemovesJobsAndExports(t *testing.T) {
	db := dbtest.New(t)
	store := users.NewStore(db)
	ctx := context.Background()

	alice, err := store.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	_, err = jobs.NewRepository(db).Create(ctx, alice.ID, jobs.CreateInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	deleter := &recordingDeleter{err: errors.New("bucket offline")}
	var out bytes.Buffer
	require.NoError(t, deleteUser(ctx, db, deleter, "alice@example.com", &out))

	assert.Equal(t, []string{api.ExportPrefix(alice.ID)}, deleter.prefixes)
	assert.Contains(t, out.String(), "alice")

	var count int64
	require.NoError(t, db.Model(&database.Job{}).Count(&count).Error)
	assert.Zero(t, count)

	err = deleteUser(ctx, db, nil, "alice@example.com", &out)
	assert.True(t, errcode.Has(err, errcode.NotFound))
}

func TestGenerateRandomPassword(t *testing.T) {
	a, err := generateRandomPassword(24)
	require.NoError(t, err)
	b, err := generateRandomPassword(0)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.Len(t, b, 32)
	assert.NotEqual(t, a, b)
}
