package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/adamwoolhether/tablero/airtable"
)

const (
	oneOfTaskStatus    = "oneof=Pendiente 'En progreso' 'En revisión' Completado"
	oneOfBlock         = "oneof='1° Bloque' '2° Bloque' '3° Bloque' '4° Bloque' '5° Bloque' '6° Bloque'"
	oneOfTaskType      = "oneof=Pearson Cliente 'Aprobación Universidad'"
	oneOfProjectStatus = "oneof='En progreso' 'En revisión' 'En pausa' Terminado Interrumpido"
	isDate             = "datetime=2006-01-02"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store is the subset of the Airtable client the board needs.
type Store interface {
	ListAll(ctx context.Context, table string, opts airtable.ListOptions) ([]airtable.Record, error)
	Create(ctx context.Context, table string, fields airtable.Fields) (airtable.Record, error)
	Update(ctx context.Context, table, id string, fields airtable.Fields) (airtable.Record, error)
	UpdateAll(ctx context.Context, table string, updates []airtable.Update) ([]airtable.Record, error)
	Delete(ctx context.Context, table, id string) error
}

var _ Store = (*airtable.Client)(nil)

// Service reads and edits the projects board.
type Service struct {
	store  Store
	tables Tables
	now    func() time.Time
	logger *slog.Logger

	team      *expirable.LRU[string, map[string]string]
	teamFetch singleflight.Group
}

// New returns a Service backed by store.
func New(store Store, optFns ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying board option: %w", err)
		}
	}

	s := Service{
		store:  store,
		tables: DefaultTables(),
		now:    time.Now,
		logger: slog.Default(),
	}

	if opts.tables != nil {
		s.tables = *opts.tables
	}
	if opts.now != nil {
		s.now = opts.now
	}
	if opts.logger != nil {
		s.logger = opts.logger
	}

	ttl := DefaultTeamTTL
	if opts.teamTTL != nil {
		ttl = *opts.teamTTL
	}
	s.team = expirable.NewLRU[string, map[string]string](1, nil, ttl)

	return &s, nil
}

// Projects lists projects matching f. Search and status are pushed down to
// Airtable as a formula. Responsable is a linked field, so it is matched
// after loading.
func (s *Service) Projects(ctx context.Context, f ProjectFilter) ([]Project, error) {
	var status string
	if !ignoredStatus(f.Status) {
		status = airtable.Equals(fieldProjectStatus, f.Status)
	}

	opts := airtable.ListOptions{
		PageSize: pageSize(f.PageSize),
		Fields:   projectFields,
		Filter:   airtable.And(airtable.Search(f.Search, fieldClientName, fieldProjectName), status),
	}

	recs, err := s.store.ListAll(ctx, s.tables.Projects, opts)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]Project, 0, len(recs))
	for _, rec := range recs {
		p := projectFromRecord(rec)
		if f.ResponsableID != "" && !slices.Contains(p.responsables, f.ResponsableID) {
			continue
		}
		projects = append(projects, p)
	}

	return projects, nil
}

// TasksByProject returns the tasks linked to projectID in board order.
func (s *Service) TasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	if projectID == "" {
		return nil, ErrMissingProject
	}

	names := s.teamNames(ctx)

	tasks, err := s.tasks(ctx, names)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(tasks, func(t Task) bool {
		return t.ProjectID == nil || *t.ProjectID != projectID
	}), nil
}

// tasks loads the whole tasks table sorted by Orden. Linked record fields
// cannot be matched reliably by formula, so filtering happens in memory.
func (s *Service) tasks(ctx context.Context, names map[string]string) ([]Task, error) {
	recs, err := s.store.ListAll(ctx, s.tables.Tasks, airtable.ListOptions{
		Fields: taskFields,
		Sort:   []airtable.Sort{{Field: fieldOrder, Direction: airtable.Asc}},
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := make([]Task, len(recs))
	for i, rec := range recs {
		tasks[i] = taskFromRecord(rec, names)
	}

	return tasks, nil
}

// CreateTask adds a task to projectID. Only non-empty fields are written.
func (s *Service) CreateTask(ctx context.Context, projectID string, in TaskInput) (Task, error) {
	if projectID == "" {
		return Task{}, ErrMissingProject
	}
	if err := validate.Struct(in); err != nil {
		return Task{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	fields := airtable.Fields{
		fieldTaskName:    in.Name,
		fieldTaskProject: []string{projectID},
	}
	setIf(fields, fieldTaskStatus, in.Status)
	setIf(fields, fieldBlock, in.Block)
	setIf(fields, fieldTaskType, in.Type)
	setIf(fields, fieldDueDate, in.DueDate)
	setIf(fields, fieldDescription, in.Description)
	setIf(fields, fieldNotes, in.Notes)
	if in.Order != nil {
		fields[fieldOrder] = *in.Order
	}

	rec, err := s.store.Create(ctx, s.tables.Tasks, fields)
	if err != nil {
		return Task{}, fmt.Errorf("creating task: %w", err)
	}

	return taskFromRecord(rec, s.cachedNames()), nil
}

// UpdateTask applies patch to task id. current is what the caller last saw
// of the task and may be nil.
//
// Moving a task to "En progreso" stamps today's start date if it had none.
// Moving it to "Completado" stamps the completion date, and the start date
// if missing. Moving a completed task to any other status clears the
// completion date. Empty strings clear a field.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch, current *TaskState) (Task, error) {
	if id == "" {
		return Task{}, ErrMissingTask
	}
	if err := validatePatch(patch); err != nil {
		return Task{}, err
	}

	fields := airtable.Fields{}
	setPatch(fields, fieldTaskName, patch.Name)
	setPatch(fields, fieldTaskStatus, patch.Status)
	setPatch(fields, fieldBlock, patch.Block)
	setPatch(fields, fieldTaskType, patch.Type)
	setPatch(fields, fieldDueDate, patch.DueDate)
	setPatch(fields, fieldDescription, patch.Description)
	setPatch(fields, fieldNotes, patch.Notes)
	if patch.Order.Set {
		if patch.Order.Value == nil {
			fields[fieldOrder] = nil
		} else {
			fields[fieldOrder] = *patch.Order.Value
		}
	}

	if patch.Status.Set && patch.Status.Value != nil && *patch.Status.Value != "" {
		s.stampDates(fields, *patch.Status.Value, current)
	}

	if len(fields) == 0 {
		return Task{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	rec, err := s.store.Update(ctx, s.tables.Tasks, id, fields)
	if err != nil {
		return Task{}, fmt.Errorf("updating task %s: %w", id, err)
	}

	return taskFromRecord(rec, s.cachedNames()), nil
}

func (s *Service) stampDates(fields airtable.Fields, status string, current *TaskState) {
	today := s.now().Format(dateLayout)
	// Without the caller's view of the task there is no telling whether it
	// has a start date, so one is never written blind.
	unstarted := current != nil && (current.StartDate == nil || *current.StartDate == "")

	switch status {
	case TaskInProgress:
		if unstarted {
			fields[fieldStartDate] = today
		}
	case TaskDone:
		fields[fieldCompletedDate] = today
		if unstarted {
			fields[fieldStartDate] = today
		}
	}

	if current != nil && current.Status == TaskDone && status != TaskDone {
		fields[fieldCompletedDate] = nil
	}
}

// DeleteTask removes task id.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingTask
	}
	if err := s.store.Delete(ctx, s.tables.Tasks, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// ReorderTasks writes new Orden values, in batches the API accepts.
func (s *Service) ReorderTasks(ctx context.Context, updates []OrderUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no updates", ErrInvalidInput)
	}

	batch := make([]airtable.Update, len(updates))
	for i, u := range updates {
		if err := validate.Struct(u); err != nil {
			return fmt.Errorf("%w: update %d: %w", ErrInvalidInput, i, err)
		}
		batch[i] = airtable.Update{ID: u.ID, Fields: airtable.Fields{fieldOrder: *u.Order}}
	}

	if _, err := s.store.UpdateAll(ctx, s.tables.Tasks, batch); err != nil {
		return fmt.Errorf("reordering tasks: %w", err)
	}

	s.logger.Info("tasks reordered", "count", len(updates))

	return nil
}

// UpdateProjectStatus sets the manual status of project id.
func (s *Service) UpdateProjectStatus(ctx context.Context, id, status string) error {
	if id == "" {
		return ErrMissingProject
	}
	if err := validate.Var(status, "required,"+oneOfProjectStatus); err != nil {
		return fmt.Errorf("%w: status %q: %w", ErrInvalidInput, status, err)
	}

	if _, err := s.store.Update(ctx, s.tables.Projects, id, airtable.Fields{fieldProjectStatus: status}); err != nil {
		return fmt.Errorf("updating project %s status: %w", id, err)
	}
	return nil
}

// UpdateProjectDate sets the promised delivery date of project id. An empty
// date clears it.
func (s *Service) UpdateProjectDate(ctx context.Context, id, date string) error {
	if id == "" {
		return ErrMissingProject
	}

	var v any
	if date != "" {
		if err := validate.Var(date, isDate); err != nil {
			return fmt.Errorf("%w: date %q: %w", ErrInvalidInput, date, err)
		}
		v = date
	}

	if _, err := s.store.Update(ctx, s.tables.Projects, id, airtable.Fields{fieldPromisedDate: v}); err != nil {
		return fmt.Errorf("updating project %s date: %w", id, err)
	}
	return nil
}

func validatePatch(p TaskPatch) error {
	checks := []struct {
		name  string
		patch Patch[string]
		tag   string
	}{
		{"estado", p.Status, oneOfTaskStatus},
		{"bloque", p.Block, oneOfBlock},
		{"tipoTarea", p.Type, oneOfTaskType},
		{"fechaLimite", p.DueDate, isDate},
	}

	for _, c := range checks {
		if c.patch.Value == nil || *c.patch.Value == "" {
			continue
		}
		if err := validate.Var(*c.patch.Value, c.tag); err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidInput, c.name, *c.patch.Value, err)
		}
	}

	if p.Name.Set && (p.Name.Value == nil || *p.Name.Value == "") {
		return fmt.Errorf("%w: nombreTarea cannot be cleared", ErrInvalidInput)
	}

	return nil
}

func setIf(f airtable.Fields, name, v string) {
	if v != "" {
		f[name] = v
	}
}

func setPatch(f airtable.Fields, name string, p Patch[string]) {
	if !p.Set {
		return
	}
	if p.Value == nil || *p.Value == "" {
		f[name] = nil
		return
	}
	f[name] = *p.Value
}

func ignoredStatus(s string) bool {
	switch s {
	case "", "all", "Todos", "Todos los estados":
		return true
	}
	return false
}

func pageSize(n int) int {
	switch {
	case n <= 0:
		return defaultPageSize
	case n > airtable.MaxPageSize:
		return airtable.MaxPageSize
	}
	return n
}
