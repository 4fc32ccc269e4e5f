package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"todo-backend/internal/task/domain"
	"todo-backend/internal/task/repository"
	"todo-backend/pkg/due"
	"todo-backend/pkg/recurrence"

	"cloud.google.com/go/civil"
)

const (
	// TargetInstances is the number of open future instances kept per recurring template
	TargetInstances = 4
	// LookaheadDays caps how far ahead instances are materialised
	LookaheadDays = 30
)

// Generate returns the instances to insert for a common template so that it has
// TargetInstances open future instances. existing must contain every instance
// previously spawned for the template, completed or not.
func Generate(tpl *domain.CommonTask, existing []*domain.Task, today civil.Date) []*domain.Task {
	anchor, err := civil.ParseDate(tpl.DeadlineDate)
	if err != nil {
		log.Printf("[Generator] Template %s has invalid deadline date %q, skipping", tpl.ID, tpl.DeadlineDate)
		return nil
	}
	rule := recurrence.FromPtr(tpl.RecurringRule)

	used := make(map[civil.Date]bool)
	have := 0
	for _, inst := range existing {
		if !instanceOf(tpl, inst) {
			continue
		}
		d, ok := occurrence(inst)
		if !ok {
			continue
		}
		used[d] = true
		if !inst.Completed && !d.Before(today) {
			have++
		}
	}

	var dates []civil.Date
	if rule.IsRecurring() {
		need := TargetInstances - have
		if need <= 0 {
			return nil
		}
		dates = recurrence.ExpandWindow(anchor, today, rule, today.AddDays(LookaheadDays), used, need)
	} else if !anchor.Before(today) && !used[anchor] {
		dates = []civil.Date{anchor}
	}

	out := make([]*domain.Task, 0, len(dates))
	for _, d := range dates {
		out = append(out, &domain.Task{
			UserID:         tpl.UserID,
			Text:           tpl.Text,
			Description:    tpl.Description,
			ListID:         tpl.ListID,
			DeadlineDate:   strPtr(d.String()),
			DeadlineTime:   tpl.DeadlineTime,
			RecurringRule:  tpl.RecurringRule,
			TemplateID:     strPtr(tpl.ID),
			OccurrenceDate: strPtr(d.String()),
		})
	}
	return out
}

// GenerateDaily returns tomorrow's instance for a daily template, or nil if one
// already exists. The template's local time of day is stored as UTC on the instance.
func GenerateDaily(tpl *domain.DailyTask, existing []*domain.Task, now time.Time) (*domain.Task, error) {
	loc, err := time.LoadLocation(tpl.Timezone)
	if err != nil {
		return nil, fmt.Errorf("template %s: load timezone %q: %w", tpl.ID, tpl.Timezone, err)
	}

	tomorrow := civil.DateOf(now.In(loc)).AddDays(1)
	key := tomorrow.String()
	for _, inst := range existing {
		if inst.TemplateID != nil && *inst.TemplateID == tpl.ID &&
			inst.OccurrenceDate != nil && *inst.OccurrenceDate == key {
			return nil, nil
		}
	}

	task := &domain.Task{
		UserID:         tpl.UserID,
		Text:           tpl.Text,
		Description:    tpl.Description,
		ListID:         tpl.ListID,
		DeadlineDate:   strPtr(key),
		TemplateID:     strPtr(tpl.ID),
		OccurrenceDate: strPtr(key),
	}

	if tpl.Time != nil {
		local, err := due.ParseTime(*tpl.Time)
		if err != nil {
			log.Printf("[Generator] Daily template %s has invalid time %q, creating without time", tpl.ID, *tpl.Time)
			return task, nil
		}
		at := civil.DateTime{Date: tomorrow, Time: local}.In(loc).UTC()
		task.DeadlineDate = strPtr(civil.DateOf(at).String())
		task.DeadlineTime = strPtr(at.Format("15:04"))
	}
	return task, nil
}

// instanceOf matches instances spawned from the template, and also legacy rows
// without a template id that carry the same text, description and rule
func instanceOf(tpl *domain.CommonTask, inst *domain.Task) bool {
	if inst.TemplateID != nil {
		return *inst.TemplateID == tpl.ID
	}
	return inst.UserID == tpl.UserID &&
		inst.Text == tpl.Text &&
		strVal(inst.Description) == strVal(tpl.Description) &&
		strVal(inst.RecurringRule) == strVal(tpl.RecurringRule)
}

func occurrence(inst *domain.Task) (civil.Date, bool) {
	src := inst.OccurrenceDate
	if src == nil {
		src = inst.DeadlineDate
	}
	if src == nil {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(*src)
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}

// GenerationSummary reports one generator run
type GenerationSummary struct {
	CommonTemplates int `json:"common_templates"`
	DailyTemplates  int `json:"daily_templates"`
	Created         int `json:"created"`
	Failed          int `json:"failed"`
}

// GenerationJob materialises task instances for every template
type GenerationJob struct {
	taskRepo     repository.TaskRepository
	templateRepo repository.TemplateRepository
	now          func() time.Time
}

// NewGenerationJob creates a generation job
func NewGenerationJob(taskRepo repository.TaskRepository, templateRepo repository.TemplateRepository, now func() time.Time) *GenerationJob {
	if now == nil {
		now = time.Now
	}
	return &GenerationJob{taskRepo: taskRepo, templateRepo: templateRepo, now: now}
}

// Run generates instances for all templates. Listing templates failing aborts the
// run; a failure on one template is counted and the run continues.
func (j *GenerationJob) Run(ctx context.Context) (*GenerationSummary, error) {
	now := j.now()
	today := due.Today(now)
	summary := &GenerationSummary{}

	commons, err := j.templateRepo.ListCommon(ctx)
	if err != nil {
		return nil, fmt.Errorf("list common templates: %w", err)
	}
	summary.CommonTemplates = len(commons)

	for _, tpl := range commons {
		existing, err := j.existingFor(ctx, tpl)
		if err != nil {
			log.Printf("[Generator] Error loading instances for template %s: %v", tpl.ID, err)
			summary.Failed++
			continue
		}
		created, err := j.taskRepo.CreateMany(ctx, Generate(tpl, existing, today))
		if err != nil {
			log.Printf("[Generator] Error inserting instances for template %s: %v", tpl.ID, err)
			summary.Failed++
		}
		summary.Created += created
	}

	dailies, err := j.templateRepo.ListDaily(ctx)
	if err != nil {
		return nil, fmt.Errorf("list daily templates: %w", err)
	}
	summary.DailyTemplates = len(dailies)

	for _, tpl := range dailies {
		existing, err := j.taskRepo.FindByTemplate(ctx, tpl.ID)
		if err != nil {
			log.Printf("[Generator] Error loading instances for daily template %s: %v", tpl.ID, err)
			summary.Failed++
			continue
		}
		task, err := GenerateDaily(tpl, existing, now)
		if err != nil {
			log.Printf("[Generator] %v", err)
			summary.Failed++
			continue
		}
		if task == nil {
			continue
		}
		created, err := j.taskRepo.CreateMany(ctx, []*domain.Task{task})
		if err != nil {
			log.Printf("[Generator] Error inserting daily instance for template %s: %v", tpl.ID, err)
			summary.Failed++
		}
		summary.Created += created
	}

	log.Printf("[Generator] Created %d instances from %d common and %d daily templates",
		summary.Created, summary.CommonTemplates, summary.DailyTemplates)
	return summary, nil
}

// existingFor loads spawned instances plus same-shaped rows the user created by hand
func (j *GenerationJob) existingFor(ctx context.Context, tpl *domain.CommonTask) ([]*domain.Task, error) {
	spawned, err := j.taskRepo.FindByTemplate(ctx, tpl.ID)
	if err != nil {
		return nil, err
	}
	own, err := j.taskRepo.FindByUserID(ctx, tpl.UserID, nil)
	if err != nil {
		return nil, err
	}
	for _, t := range own {
		if t.TemplateID == nil {
			spawned = append(spawned, t)
		}
	}
	return spawned, nil
}

func strPtr(s string) *string {
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
