package board

import (
	"encoding/json"
	"errors"
)

// Task statuses, in board column order.
const (
	TaskPending    = "Pendiente"
	TaskInProgress = "En progreso"
	TaskInReview   = "En revisión"
	TaskDone       = "Completado"
)

// Project statuses.
const (
	ProjectInProgress  = "En progreso"
	ProjectInReview    = "En revisión"
	ProjectPaused      = "En pausa"
	ProjectFinished    = "Terminado"
	ProjectInterrupted = "Interrumpido"
)

// RoleAdmin sees every project and task regardless of assignment.
const RoleAdmin = "admin"

const (
	defaultProjectName = "Sin nombre"
	defaultClientName  = "Sin cliente"
	defaultTaskName    = "Sin nombre"
	defaultPageSize    = 50
	dateLayout         = "2006-01-02"
)

var (
	ErrInvalidInput   = errors.New("board: invalid input")
	ErrMissingProject = errors.New("board: project id required")
	ErrMissingTask    = errors.New("board: task id required")
)

// Identity is the already-authenticated caller.
type Identity struct {
	Role       string
	AirtableID string
}

// IsAdmin reports whether the caller bypasses assignment filtering.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Project is a row of the projects table.
type Project struct {
	ID               string   `json:"id"`
	Name             string   `json:"nombreProyecto"`
	Client           string   `json:"clienteNombre"`
	University       *string  `json:"universidad"`
	Type             *string  `json:"tipoProyecto"`
	Status           *string  `json:"estadoManual"`
	RemainingPayment *float64 `json:"pagoRestante"`
	PromisedDate     *string  `json:"fechaPrometida"`
	Progress         int      `json:"progreso"`
	TotalTasks       int      `json:"totalTareas"`
	CompletedTasks   int      `json:"tareasCompletadas"`

	responsables []string
}

// DisplayName is how the project is labeled next to its tasks.
func (p Project) DisplayName() string {
	if p.Client != "" && p.Client != defaultClientName {
		return p.Client
	}
	return p.Name
}

// Responsable is a team member assigned to a task.
type Responsable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is a row of the tasks table.
type Task struct {
	ID            string        `json:"id"`
	Name          string        `json:"nombreTarea"`
	ProjectID     *string       `json:"proyectoId"`
	Block         *string       `json:"bloque"`
	Order         *float64      `json:"orden"`
	Type          *string       `json:"tipoTarea"`
	Status        string        `json:"estado"`
	DueDate       *string       `json:"fechaLimite"`
	StartDate     *string       `json:"fechaInicio"`
	CompletedDate *string       `json:"fechaCompletado"`
	Description   *string       `json:"descripcion"`
	Notes         *string       `json:"notas"`
	Responsables  []Responsable `json:"responsable"`
}

// AssignedTo reports whether airtableID is among the task's responsables.
func (t Task) AssignedTo(airtableID string) bool {
	for _, r := range t.Responsables {
		if r.ID == airtableID {
			return true
		}
	}
	return false
}

// TaskInput is the payload for creating a task. Empty optional fields are
// left unset in the store.
type TaskInput struct {
	Name        string   `json:"nombreTarea" validate:"required"`
	Status      string   `json:"estado,omitempty" validate:"omitempty,oneof=Pendiente 'En progreso' 'En revisión' Completado"`
	Block       string   `json:"bloque,omitempty" validate:"omitempty,oneof='1° Bloque' '2° Bloque' '3° Bloque' '4° Bloque' '5° Bloque' '6° Bloque'"`
	Order       *float64 `json:"orden,omitempty"`
	Type        string   `json:"tipoTarea,omitempty" validate:"omitempty,oneof=Pearson Cliente 'Aprobación Universidad'"`
	DueDate     string   `json:"fechaLimite,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description string   `json:"descripcion,omitempty"`
	Notes       string   `json:"notas,omitempty"`
}

// Patch is one field of a partial update. It tells apart a field that was
// left out (Set is false), one sent as null (Value is nil) and one sent with
// a value.
type Patch[T any] struct {
	Set   bool
	Value *T
}

// Set returns a Patch carrying v.
func Set[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: &v}
}

// Clear returns a Patch that empties the field.
func Clear[T any]() Patch[T] {
	return Patch[T]{Set: true}
}

func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	p.Set = true

	if string(b) == "null" {
		p.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v

	return nil
}

func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.Value)
}

// TaskPatch is a partial task update.
type TaskPatch struct {
	Name        Patch[string]  `json:"nombreTarea"`
	Status      Patch[string]  `json:"estado"`
	Block       Patch[string]  `json:"bloque"`
	Order       Patch[float64] `json:"orden"`
	Type        Patch[string]  `json:"tipoTarea"`
	DueDate     Patch[string]  `json:"fechaLimite"`
	Description Patch[string]  `json:"descripcion"`
	Notes       Patch[string]  `json:"notas"`
}

// TaskState is what the caller last saw of a task. It drives the automatic
// start and completion dates on a status change.
type TaskState struct {
	Status    string  `json:"estado"`
	StartDate *string `json:"fechaInicio"`
}

// OrderUpdate moves one task to a new position.
type OrderUpdate struct {
	ID    string   `json:"id" validate:"required"`
	Order *float64 `json:"orden" validate:"required"`
}

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	PageSize      int
	Search        string
	Status        string
	ResponsableID string
}

// StatusCounts tallies tasks per status.
type StatusCounts struct {
	Pending    int `json:"pendiente"`
	InProgress int `json:"enProgreso"`
	InReview   int `json:"enRevision"`
	Done       int `json:"completado"`
}

// ProjectTask is a task labeled with the project it belongs to.
type ProjectTask struct {
	Task
	ProjectName string `json:"projectName"`
}

// DashboardData summarizes the caller's workload.
type DashboardData struct {
	TotalTasks   int           `json:"totalTasks"`
	TasksByState StatusCounts  `json:"tasksByStatus"`
	OverdueTasks []ProjectTask `json:"overdueTasks"`
	UrgentTasks  []ProjectTask `json:"urgentTasks"`
	DatedTasks   []ProjectTask `json:"tasksWithDates"`
	// ScheduledProjects holds every visible project with a promised date.
	ScheduledProjects  []Project `json:"activeProjects"`
	CompletedThisWeek  int       `json:"completedThisWeek"`
	CompletedThisMonth int       `json:"completedThisMonth"`
	AvgDaysPerTask     *float64  `json:"avgDaysPerTask"`
}
