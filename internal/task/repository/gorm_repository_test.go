package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"todo-backend/internal/task/domain"
	"todo-backend/internal/task/repository"
	"todo-backend/internal/testutil"

	"github.com/matryer/is"
)

func newTask(userID string) *domain.Task {
	return &domain.Task{
		UserID:       userID,
		Text:         "Pay rent",
		DeadlineDate: testutil.Ptr("2024-03-10"),
		DeadlineTime: testutil.Ptr("09:00"),
	}
}

func TestClaimNotification(t *testing.T) {
	ctx := context.Background()
	deadline := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("second claim loses", func(t *testing.T) {
		is := is.New(t)
		repo := repository.NewGormTaskRepository(testutil.NewDB(t))
		task := newTask("u1")
		is.NoErr(repo.Create(ctx, task))

		won, err := repo.ClaimNotification(ctx, task.ID, deadline)
		is.NoErr(err)
		is.True(won)

		won, err = repo.ClaimNotification(ctx, task.ID, deadline)
		is.NoErr(err)
		is.True(!won)

		stored, err := repo.FindByID(ctx, task.ID)
		is.NoErr(err)
		is.True(stored.NotifiedAt != nil)
		is.True(stored.NotifiedAt.Equal(deadline))
	})

	t.Run("exactly one concurrent claim wins", func(t *testing.T) {
		is := is.New(t)
		repo := repository.NewGormTaskRepository(testutil.NewDB(t))
		task := newTask("u1")
		is.NoErr(repo.Create(ctx, task))

		const workers = 16
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
			errs []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, err := repo.ClaimNotification(ctx, task.ID, deadline)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
				}
				if won {
					wins++
				}
			}()
		}
		wg.Wait()

		is.Equal(len(errs), 0)
		is.Equal(wins, 1)
	})

	t.Run("unknown task", func(t *testing.T) {
		is := is.New(t)
		repo := repository.NewGormTaskRepository(testutil.NewDB(t))
		won, err := repo.ClaimNotification(ctx, "missing", deadline)
		is.NoErr(err)
		is.True(!won)
	})
}

func TestFindPendingReminders(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	repo := repository.NewGormTaskRepository(testutil.NewDB(t))

	pending := newTask("u1")
	is.NoErr(repo.Create(ctx, pending))

	done := newTask("u1")
	done.Completed = true
	is.NoErr(repo.Create(ctx, done))

	noDeadline := &domain.Task{UserID: "u1", Text: "someday"}
	is.NoErr(repo.Create(ctx, noDeadline))

	notified := newTask("u1")
	is.NoErr(repo.Create(ctx, notified))
	_, err := repo.ClaimNotification(ctx, notified.ID, time.Now())
	is.NoErr(err)

	tasks, err := repo.FindPendingReminders(ctx)
	is.NoErr(err)
	is.Equal(len(tasks), 1)
	is.Equal(tasks[0].ID, pending.ID)

	open, err := repo.FindIncompleteWithDeadline(ctx)
	is.NoErr(err)
	is.Equal(len(open), 2)
}

func TestCreateMany_SkipsDuplicateOccurrences(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	repo := repository.NewGormTaskRepository(testutil.NewDB(t))

	mk := func(date string) *domain.Task {
		return &domain.Task{
			UserID:         "u1",
			Text:           "Gym",
			DeadlineDate:   testutil.Ptr(date),
			TemplateID:     testutil.Ptr("tpl-1"),
			OccurrenceDate: testutil.Ptr(date),
		}
	}

	n, err := repo.CreateMany(ctx, []*domain.Task{mk("2024-01-03"), mk("2024-01-05")})
	is.NoErr(err)
	is.Equal(n, 2)

	n, err = repo.CreateMany(ctx, []*domain.Task{mk("2024-01-05"), mk("2024-01-08")})
	is.NoErr(err)
	is.Equal(n, 1)

	tasks, err := repo.FindByTemplate(ctx, "tpl-1")
	is.NoErr(err)
	is.Equal(len(tasks), 3)
}

func TestUpdateFields(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	repo := repository.NewGormTaskRepository(testutil.NewDB(t))
	deadline := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	task := newTask("u1")
	is.NoErr(repo.Create(ctx, task))
	won, err := repo.ClaimNotification(ctx, task.ID, deadline)
	is.NoErr(err)
	is.True(won)

	found, err := repo.UpdateFields(ctx, "u1", task.ID, map[string]interface{}{
		"text":        "Pay rent (flat)",
		"description": nil,
		"notified_at": nil, // not writable through UpdateFields
	})
	is.NoErr(err)
	is.True(found)

	stored, err := repo.FindByID(ctx, task.ID)
	is.NoErr(err)
	is.Equal(stored.Text, "Pay rent (flat)")
	is.Equal(*stored.DeadlineTime, "09:00")
	is.True(stored.NotifiedAt != nil)

	found, err = repo.UpdateFields(ctx, "u2", task.ID, map[string]interface{}{"text": "stolen"})
	is.NoErr(err)
	is.True(!found)

	// the claim for the current instant survives a reset to that instant
	other := deadline.Add(time.Hour)
	is.NoErr(repo.ResetNotification(ctx, task.ID, &deadline))
	stored, err = repo.FindByID(ctx, task.ID)
	is.NoErr(err)
	is.True(stored.NotifiedAt != nil)

	is.NoErr(repo.ResetNotification(ctx, task.ID, &other))
	stored, err = repo.FindByID(ctx, task.ID)
	is.NoErr(err)
	is.True(stored.NotifiedAt == nil)
}
