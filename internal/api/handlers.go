package api

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/adamwoolhether/tablero/board"
	"github.com/adamwoolhether/tablero/web"
	"github.com/adamwoolhether/tablero/web/errs"
	"github.com/adamwoolhether/tablero/web/mux"
)

type handlers struct {
	board Board
}

// projectPage keeps the paging fields the frontend reads even though every
// matching project is returned at once.
type projectPage struct {
	Success bool            `json:"success"`
	Data    []board.Project `json:"data"`
	HasMore bool            `json:"hasMore"`
	Offset  *string         `json:"offset"`
}

func (h *handlers) projects(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pageSize, err := web.QueryInt(r, "pageSize", 0)
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	q := r.URL.Query()
	f := board.ProjectFilter{
		PageSize: pageSize,
		Search:   q.Get("search"),
		Status:   q.Get("status"),
	}

	// Admins see every project; anyone else only those assigned to them.
	if who, _ := GetIdentity(ctx); !who.IsAdmin() {
		f.ResponsableID = who.AirtableID
	}

	projects, err := h.board.Projects(ctx, f)
	if err != nil {
		return toAppError(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, projectPage{Success: true, Data: projects})
}

type projectUpdate struct {
	ProjectID string `json:"projectId" validate:"required"`
	Status    string `json:"status"`
	Promised  string `json:"fechaPrometida"`
}

func (h *handlers) updateProject(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var in projectUpdate
	if err := decode(r, &in, false); err != nil {
		return err
	}

	if in.Status != "" {
		if err := h.board.UpdateProjectStatus(ctx, in.ProjectID, in.Status); err != nil {
			return toAppError(err)
		}
	}
	if in.Promised != "" {
		if err := h.board.UpdateProjectDate(ctx, in.ProjectID, in.Promised); err != nil {
			return toAppError(err)
		}
	}

	return web.RespondJSON(ctx, w, http.StatusOK, web.Envelope{Success: true})
}

func (h *handlers) tasks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	projectID, err := web.QueryString(r, "projectId")
	if err != nil {
		return errs.Newf(http.StatusBadRequest, "Missing projectId")
	}

	tasks, err := h.board.TasksByProject(ctx, projectID)
	if err != nil {
		return toAppError(err)
	}

	return web.RespondData(ctx, w, http.StatusOK, tasks)
}

type newTask struct {
	ProjectID string `json:"projectId" validate:"required"`
	board.TaskInput
}

func (h *handlers) createTask(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var in newTask
	if err := decode(r, &in, false); err != nil {
		return err
	}

	task, err := h.board.CreateTask(ctx, in.ProjectID, in.TaskInput)
	if err != nil {
		return toAppError(err)
	}

	return web.RespondData(ctx, w, http.StatusOK, task)
}

type taskUpdate struct {
	board.TaskPatch
	Current *board.TaskState `json:"currentTask"`
}

func (h *handlers) updateTask(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := web.Param(r, "id")
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	// currentTask may carry the whole task as the frontend last saw it.
	var in taskUpdate
	if err := decode(r, &in, true); err != nil {
		return err
	}

	task, err := h.board.UpdateTask(ctx, id, in.TaskPatch, in.Current)
	if err != nil {
		return toAppError(err)
	}

	return web.RespondData(ctx, w, http.StatusOK, task)
}

func (h *handlers) deleteTask(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := web.Param(r, "id")
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	if err := h.board.DeleteTask(ctx, id); err != nil {
		return toAppError(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, web.Envelope{Success: true})
}

type reorder struct {
	Updates []board.OrderUpdate `json:"updates" validate:"required,min=1,dive"`
}

func (h *handlers) reorderTasks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var in reorder
	if err := decode(r, &in, false); err != nil {
		return err
	}

	if err := h.board.ReorderTasks(ctx, in.Updates); err != nil {
		return toAppError(err)
	}

	return web.RespondMessage(ctx, w, http.StatusOK, fmt.Sprintf("%d tasks updated", len(in.Updates)))
}

func (h *handlers) dashboard(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	who, _ := GetIdentity(ctx)

	ctx, span := mux.AddSpan(ctx, "board.dashboard", attribute.Bool("admin", who.IsAdmin()))
	defer span.End()

	data, err := h.board.Dashboard(ctx, who)
	if err != nil {
		return toAppError(err)
	}

	w.Header().Set("Cache-Control", "no-store, must-revalidate")

	return web.RespondData(ctx, w, http.StatusOK, data)
}
