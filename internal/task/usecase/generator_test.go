package usecase

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"todo-backend/internal/task/domain"
	"todo-backend/internal/task/repository"
	"todo-backend/internal/testutil"

	"cloud.google.com/go/civil"
	"github.com/matryer/is"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dates(tasks []*domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, *t.DeadlineDate)
	}
	return out
}

func gymTemplate() *domain.CommonTask {
	return &domain.CommonTask{
		ID:            "tpl-gym",
		UserID:        "u1",
		Text:          "Gym",
		DeadlineDate:  "2024-01-01",
		DeadlineTime:  testutil.Ptr("18:00"),
		RecurringRule: testutil.Ptr("monday,wednesday,friday"),
	}
}

func TestGenerate(t *testing.T) {
	today := date("2024-01-02")

	t.Run("fills the window from a past anchor", func(t *testing.T) {
		is := is.New(t)
		out := Generate(gymTemplate(), nil, today)
		is.Equal(dates(out), []string{"2024-01-03", "2024-01-05", "2024-01-08", "2024-01-10"})
		for _, inst := range out {
			is.Equal(*inst.TemplateID, "tpl-gym")
			is.Equal(*inst.OccurrenceDate, *inst.DeadlineDate)
			is.Equal(*inst.DeadlineTime, "18:00")
		}
	})

	t.Run("tops up to the target count", func(t *testing.T) {
		is := is.New(t)
		tpl := gymTemplate()
		existing := []*domain.Task{
			{TemplateID: testutil.Ptr(tpl.ID), OccurrenceDate: testutil.Ptr("2024-01-03")},
			{TemplateID: testutil.Ptr(tpl.ID), OccurrenceDate: testutil.Ptr("2024-01-05")},
		}
		out := Generate(tpl, existing, today)
		is.Equal(dates(out), []string{"2024-01-08", "2024-01-10"})
	})

	t.Run("completed instances do not count but stay used", func(t *testing.T) {
		is := is.New(t)
		tpl := gymTemplate()
		existing := []*domain.Task{
			{TemplateID: testutil.Ptr(tpl.ID), OccurrenceDate: testutil.Ptr("2024-01-03"), Completed: true},
		}
		out := Generate(tpl, existing, today)
		is.Equal(dates(out), []string{"2024-01-05", "2024-01-08", "2024-01-10", "2024-01-12"})
	})

	t.Run("second call with merged output creates nothing", func(t *testing.T) {
		is := is.New(t)
		tpl := gymTemplate()
		first := Generate(tpl, nil, today)
		is.True(len(first) > 0)
		second := Generate(tpl, first, today)
		is.Equal(len(second), 0)
	})

	t.Run("legacy rows without template id are matched by shape", func(t *testing.T) {
		is := is.New(t)
		tpl := gymTemplate()
		existing := []*domain.Task{{
			UserID:        "u1",
			Text:          "Gym",
			DeadlineDate:  testutil.Ptr("2024-01-03"),
			RecurringRule: testutil.Ptr("monday,wednesday,friday"),
		}}
		out := Generate(tpl, existing, today)
		is.Equal(dates(out), []string{"2024-01-05", "2024-01-08", "2024-01-10"})
	})

	t.Run("one-time template", func(t *testing.T) {
		is := is.New(t)
		tpl := &domain.CommonTask{ID: "tpl-once", UserID: "u1", Text: "Dentist", DeadlineDate: "2024-01-20"}
		out := Generate(tpl, nil, today)
		is.Equal(dates(out), []string{"2024-01-20"})
		is.Equal(len(Generate(tpl, out, today)), 0)

		tpl.DeadlineDate = "2023-12-31"
		is.Equal(len(Generate(tpl, nil, today)), 0)
	})

	t.Run("invalid anchor", func(t *testing.T) {
		is := is.New(t)
		tpl := gymTemplate()
		tpl.DeadlineDate = "next tuesday"
		is.Equal(len(Generate(tpl, nil, today)), 0)
	})
}

func TestGenerateDaily(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	t.Run("local time is stored as UTC", func(t *testing.T) {
		is := is.New(t)
		tpl := &domain.DailyTask{ID: "d1", UserID: "u1", Text: "Standup", Time: testutil.Ptr("09:00"), Timezone: "America/New_York"}
		task, err := GenerateDaily(tpl, nil, now)
		is.NoErr(err)
		is.Equal(*task.OccurrenceDate, "2024-01-11")
		is.Equal(*task.DeadlineDate, "2024-01-11")
		is.Equal(*task.DeadlineTime, "14:00")
	})

	t.Run("UTC date can differ from the local occurrence", func(t *testing.T) {
		is := is.New(t)
		// 2024-01-11 00:00 in Tokyo
		tpl := &domain.DailyTask{ID: "d2", UserID: "u1", Text: "Vitamins", Time: testutil.Ptr("08:00"), Timezone: "Asia/Tokyo"}
		task, err := GenerateDaily(tpl, nil, now)
		is.NoErr(err)
		is.Equal(*task.OccurrenceDate, "2024-01-12")
		is.Equal(*task.DeadlineDate, "2024-01-11")
		is.Equal(*task.DeadlineTime, "23:00")
	})

	t.Run("existing instance is not duplicated", func(t *testing.T) {
		is := is.New(t)
		tpl := &domain.DailyTask{ID: "d1", UserID: "u1", Text: "Standup", Timezone: "UTC"}
		first, err := GenerateDaily(tpl, nil, now)
		is.NoErr(err)
		is.True(first.DeadlineTime == nil)
		second, err := GenerateDaily(tpl, []*domain.Task{first}, now)
		is.NoErr(err)
		is.True(second == nil)
	})

	t.Run("invalid time still creates the instance", func(t *testing.T) {
		is := is.New(t)
		tpl := &domain.DailyTask{ID: "d3", UserID: "u1", Text: "Walk", Time: testutil.Ptr("25:99"), Timezone: "UTC"}
		task, err := GenerateDaily(tpl, nil, now)
		is.NoErr(err)
		is.Equal(*task.DeadlineDate, "2024-01-11")
		is.True(task.DeadlineTime == nil)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		is := is.New(t)
		tpl := &domain.DailyTask{ID: "d4", UserID: "u1", Text: "Walk", Timezone: "Mars/Olympus"}
		_, err := GenerateDaily(tpl, nil, now)
		is.True(err != nil)
	})
}

func TestGenerationJob(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	taskRepo := repository.NewGormTaskRepository(db)
	templateRepo := repository.NewGormTemplateRepository(db)

	tpl := gymTemplate()
	tpl.ID = ""
	is.NoErr(templateRepo.CreateCommon(ctx, tpl))
	is.NoErr(templateRepo.CreateDaily(ctx, &domain.DailyTask{UserID: "u1", Text: "Standup", Time: testutil.Ptr("09:00"), Timezone: "UTC"}))

	clock := func() time.Time { return time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC) }
	job := NewGenerationJob(taskRepo, templateRepo, clock)

	summary, err := job.Run(ctx)
	is.NoErr(err)
	is.Equal(summary.CommonTemplates, 1)
	is.Equal(summary.DailyTemplates, 1)
	is.Equal(summary.Created, TargetInstances+1)
	is.Equal(summary.Failed, 0)

	summary, err = job.Run(ctx)
	is.NoErr(err)
	is.Equal(summary.Created, 0)

	tasks, err := taskRepo.FindByUserID(ctx, "u1", nil)
	is.NoErr(err)
	is.Equal(len(tasks), TargetInstances+1)
}

func TestUpdateTask_ResetsNotificationOnNewDeadline(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	db := testutil.NewDB(t)
	taskRepo := repository.NewGormTaskRepository(db)
	uc := NewTaskUsecase(taskRepo, repository.NewGormTemplateRepository(db), nil)

	task, err := uc.CreateTask(ctx, "u1", TaskInput{
		Text:         "Pay rent",
		DeadlineDate: testutil.Ptr("2024-03-10"),
		DeadlineTime: testutil.Ptr("09:00"),
	})
	is.NoErr(err)
	won, err := taskRepo.ClaimNotification(ctx, task.ID, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	is.NoErr(err)
	is.True(won)

	// text-only edit keeps the latch
	task, err = uc.UpdateTask(ctx, "u1", task.ID, TaskUpdateRequest{Text: testutil.Ptr("Pay rent (flat)")})
	is.NoErr(err)
	is.True(task.NotifiedAt != nil)

	task, err = uc.UpdateTask(ctx, "u1", task.ID, TaskUpdateRequest{DeadlineTime: testutil.Ptr("18:00")})
	is.NoErr(err)
	is.True(task.NotifiedAt == nil)

	stored, err := taskRepo.FindByID(ctx, task.ID)
	is.NoErr(err)
	is.True(stored.NotifiedAt == nil)

	_, err = uc.UpdateTask(ctx, "u2", task.ID, TaskUpdateRequest{Text: testutil.Ptr("mine now")})
	is.Equal(err, ErrUnauthorized)

	_, err = uc.CreateTask(ctx, "u1", TaskInput{Text: "bad", DeadlineDate: testutil.Ptr("03/10/2024")})
	is.True(err != nil)
}
