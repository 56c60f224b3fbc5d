package board

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/adamwoolhether/tablero/airtable"
)

// Projects table.
const (
	fieldProjectName      = "Nombre del Proyecto"
	fieldClientName       = "Cliente Nombre"
	fieldUniversity       = "Universidad"
	fieldProjectType      = "Tipo de Proyecto"
	fieldProjectStatus    = "Estado Manual"
	fieldRemainingPayment = "Pago Restante"
	fieldPromisedDate     = "Fecha Prometida"
	fieldProgress         = "% Progreso"
	fieldTotalTasks       = "Total Tareas"
	fieldCompletedTasks   = "Tareas Completadas"
)

// Tasks table.
const (
	fieldTaskName      = "Nombre de Tarea"
	fieldTaskProject   = "Proyecto"
	fieldBlock         = "Bloque"
	fieldOrder         = "Orden"
	fieldTaskType      = "Tipo de Tarea"
	fieldTaskStatus    = "Estado"
	fieldDueDate       = "Fecha Límite"
	fieldStartDate     = "Fecha Inicio"
	fieldCompletedDate = "Fecha Completado"
	fieldDescription   = "Descripción"
	fieldNotes         = "Notas"
)

// Shared by projects and tasks; team table.
const (
	fieldResponsable = "Responsable"
	fieldMemberName  = "Nombre"
)

var projectFields = []string{
	fieldProjectName,
	fieldClientName,
	fieldUniversity,
	fieldProjectType,
	fieldProjectStatus,
	fieldRemainingPayment,
	fieldPromisedDate,
	fieldProgress,
	fieldTotalTasks,
	fieldCompletedTasks,
	fieldResponsable,
}

var taskFields = []string{
	fieldTaskName,
	fieldTaskProject,
	fieldBlock,
	fieldOrder,
	fieldTaskType,
	fieldTaskStatus,
	fieldDueDate,
	fieldStartDate,
	fieldCompletedDate,
	fieldDescription,
	fieldNotes,
	fieldResponsable,
}

func projectFromRecord(r airtable.Record) Project {
	f := r.Fields

	p := Project{
		ID:               r.ID,
		Name:             or(f.String(fieldProjectName), defaultProjectName),
		Client:           or(f.String(fieldClientName), defaultClientName),
		Type:             optString(f, fieldProjectType),
		Status:           optString(f, fieldProjectStatus),
		RemainingPayment: optFloat(f, fieldRemainingPayment),
		PromisedDate:     optString(f, fieldPromisedDate),
		Progress:         parseProgress(f[fieldProgress]),
		TotalTasks:       intField(f, fieldTotalTasks),
		CompletedTasks:   intField(f, fieldCompletedTasks),
		responsables:     f.Strings(fieldResponsable),
	}

	// Universidad is a lookup and arrives as a list.
	if u := f.Strings(fieldUniversity); len(u) > 0 && u[0] != "" {
		p.University = &u[0]
	}

	return p
}

// taskFromRecord maps a task row. Responsable IDs missing from names are
// shown by ID.
func taskFromRecord(r airtable.Record, names map[string]string) Task {
	f := r.Fields

	t := Task{
		ID:            r.ID,
		Name:          or(f.String(fieldTaskName), defaultTaskName),
		Block:         optString(f, fieldBlock),
		Order:         optFloat(f, fieldOrder),
		Type:          optString(f, fieldTaskType),
		Status:        or(f.String(fieldTaskStatus), TaskPending),
		DueDate:       optString(f, fieldDueDate),
		StartDate:     optString(f, fieldStartDate),
		CompletedDate: optString(f, fieldCompletedDate),
		Description:   optString(f, fieldDescription),
		Notes:         optString(f, fieldNotes),
	}

	if ids := f.Strings(fieldTaskProject); len(ids) > 0 {
		t.ProjectID = &ids[0]
	}

	if ids := f.Strings(fieldResponsable); len(ids) > 0 {
		t.Responsables = make([]Responsable, len(ids))
		for i, id := range ids {
			t.Responsables[i] = Responsable{ID: id, Name: or(names[id], id)}
		}
	}

	return t
}

var leadingInt = regexp.MustCompile(`\d+`)

// parseProgress reads the progress formula. Airtable returns a fraction for
// numeric formulas and text such as "45%" or "Sin tareas" otherwise.
func parseProgress(v any) int {
	switch p := v.(type) {
	case float64:
		return int(math.Round(p * 100))
	case string:
		if p == "Sin tareas" {
			return 0
		}
		if m := leadingInt.FindString(p); m != "" {
			n, _ := strconv.Atoi(m)
			return n
		}
	}

	return 0
}

// parseDate accepts a plain date or a full timestamp and returns midnight of
// that day in loc.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if d, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return midnight(ts.In(loc)), true
	}

	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func optString(f airtable.Fields, name string) *string {
	if s := f.String(name); s != "" {
		return &s
	}
	return nil
}

func optFloat(f airtable.Fields, name string) *float64 {
	if v, ok := f.Float(name); ok {
		return &v
	}
	return nil
}

func intField(f airtable.Fields, name string) int {
	v, _ := f.Float(name)
	return int(v)
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
