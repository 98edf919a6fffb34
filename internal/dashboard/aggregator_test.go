package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"jobtracker/internal/database"
	"jobtracker/internal/database/dbtest"
	"jobtracker/internal/jobs"
)

func strPtr(s string) *string { return &s }

func TestCompute(t *testing.T) {
	db := dbtest.New(t)
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	clock := now
	repo := jobs.NewRepository(db).WithClock(func() time.Time { return clock })
	agg := NewAggregator(repo).WithClock(func() time.Time { return now })
	ctx := context.Background()

	user := database.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	other := database.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&other).Error)

	create := func(userID uint, in jobs.CreateInput) *database.Job {
		clock = clock.Add(time.Minute)
		job, err := repo.Create(ctx, userID, in)
		require.NoError(t, err)
		return job
	}

	today := create(user.ID, jobs.CreateInput{Title: "Today", Company: "A", DeadlineDate: strPtr("2024-03-15"), ApplicationDate: strPtr("2024-03-01")})
	edge := create(user.ID, jobs.CreateInput{Title: "Edge", Company: "B", Status: jobs.Some("interview"), DeadlineDate: strPtr("2024-03-22"), ApplicationDate: strPtr("2024-02-10")})
	create(user.ID, jobs.CreateInput{Title: "Outside", Company: "C", Status: jobs.Some("bookmark"), DeadlineDate: strPtr("2024-03-23"), ApplicationDate: strPtr("2024-02-11")})
	create(user.ID, jobs.CreateInput{Title: "Past", Company: "D", Status: jobs.Some("rejected"), DeadlineDate: strPtr("2024-03-14"), ApplicationDate: strPtr("2023-09-30")})
	create(user.ID, jobs.CreateInput{Title: "Old", Company: "E", Status: jobs.Some("accepted"), ApplicationDate: strPtr("2023-08-31")})
	create(user.ID, jobs.CreateInput{Title: "NoDeadline", Company: "F", ApplicationDate: strPtr("2024-03-02")})
	create(other.ID, jobs.CreateInput{Title: "Foreign", Company: "G", DeadlineDate: strPtr("2024-03-16")})

	stats, err := agg.Compute(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(2), stats.Counts[jobs.StatusApplied])
	assert.Equal(t, int64(1), stats.Counts[jobs.StatusInterview])
	assert.Equal(t, int64(1), stats.Counts[jobs.StatusBookmark])
	assert.Equal(t, int64(1), stats.Counts[jobs.StatusAccepted])
	assert.Equal(t, int64(1), stats.Counts[jobs.StatusRejected])
	var sum int64
	for _, c := range stats.Counts {
		sum += c
	}
	assert.Equal(t, stats.Total, sum)

	require.Len(t, stats.Upcoming, 2)
	assert.Equal(t, today.ID, stats.Upcoming[0].Job.ID)
	assert.Equal(t, 0, stats.Upcoming[0].DaysRemaining)
	assert.Equal(t, edge.ID, stats.Upcoming[1].Job.ID)
	assert.Equal(t, 7, stats.Upcoming[1].DaysRemaining)

	require.NoError(t, stats.MonthlyErr)
	assert.Equal(t, map[string]map[jobs.Status]int64{
		"2023-09": {jobs.StatusRejected: 1},
		"2024-02": {jobs.StatusInterview: 1, jobs.StatusBookmark: 1},
		"2024-03": {jobs.StatusApplied: 2},
	}, stats.Monthly)

	require.Len(t, stats.Recent, 5)
	assert.Equal(t, "NoDeadline", stats.Recent[0].Job.Title)
	for _, a := range stats.Recent {
		assert.Equal(t, ActivityStatusUpdate, a.Type)
		assert.Equal(t, user.ID, a.Job.UserID)
	}
}

func TestCompute_EmptyUser(t *testing.T) {
	db := dbtest.New(t)
	agg := NewAggregator(jobs.NewRepository(db))

	stats, err := agg.Compute(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Len(t, stats.Counts, len(jobs.Statuses))
	assert.Empty(t, stats.Upcoming)
	assert.Empty(t, stats.Monthly)
	assert.NotNil(t, stats.Monthly)
	assert.Empty(t, stats.Recent)
}

type failingMonthly struct {
	JobReader
}

func (failingMonthly) MonthlyStatusCounts(context.Context, uint, datatypes.Date) ([]jobs.MonthlyCount, error) {
	return nil, errors.New("grouping not supported")
}

func TestCompute_MonthlyFailureDegrades(t *testing.T) {
	db := dbtest.New(t)
	agg := NewAggregator(failingMonthly{JobReader: jobs.NewRepository(db)})

	stats, err := agg.Compute(context.Background(), 1)
	require.NoError(t, err)
	require.Error(t, stats.MonthlyErr)
	assert.Contains(t, stats.MonthlyErr.Error(), "grouping not supported")
	assert.Nil(t, stats.Monthly)
}

func TestMonthlyWindowStart(t *testing.T) {
	cases := map[string]string{
		"2024-03-15": "2023-09-01",
		"2024-07-31": "2024-01-01",
		"2024-01-01": "2023-07-01",
		"2024-12-31": "2024-06-01",
	}
	for today, want := range cases {
		d, err := jobs.ParseDate(today)
		require.NoError(t, err)
		assert.Equal(t, want, jobs.FormatDate(MonthlyWindowStart(d)), today)
	}
}
