package board

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adamwoolhether/tablero/airtable"
)

const (
	urgentWithinDays = 2
	dashboardListMax = 10
)

// Dashboard summarizes the work visible to who. Projects and tasks are
// loaded concurrently; both requests still take their turn in the shared
// throttle.
//
// Only tasks of active projects count, that is projects with a manual status
// other than finished or interrupted. Admins see everything; anyone else sees
// their own projects and the tasks assigned to them.
func (s *Service) Dashboard(ctx context.Context, who Identity) (DashboardData, error) {
	filter := ProjectFilter{PageSize: airtable.MaxPageSize}
	if !who.IsAdmin() {
		filter.ResponsableID = who.AirtableID
	}

	var (
		projects []Project
		tasks    []Task
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = s.Projects(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.tasks(gctx, s.teamNames(gctx))
		return err
	})

	if err := g.Wait(); err != nil {
		return DashboardData{}, fmt.Errorf("loading dashboard: %w", err)
	}

	return summarize(projects, tasks, who, s.now()), nil
}

func summarize(projects []Project, tasks []Task, who Identity, now time.Time) DashboardData {
	loc := now.Location()
	today := midnight(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)

	data := DashboardData{
		OverdueTasks:      []ProjectTask{},
		UrgentTasks:       []ProjectTask{},
		DatedTasks:        []ProjectTask{},
		ScheduledProjects: []Project{},
	}

	active := make(map[string]string)
	for _, p := range projects {
		if p.PromisedDate != nil {
			data.ScheduledProjects = append(data.ScheduledProjects, p)
		}
		if p.Status == nil {
			continue
		}
		if *p.Status == ProjectFinished || *p.Status == ProjectInterrupted {
			continue
		}
		active[p.ID] = p.DisplayName()
	}

	type dated struct {
		task ProjectTask
		due  time.Time
	}
	var (
		overdue, urgent, withDates []dated
		spentDays                  float64
		spentTasks                 int
	)

	for _, t := range tasks {
		if t.ProjectID == nil {
			continue
		}
		name, ok := active[*t.ProjectID]
		if !ok {
			continue
		}
		if !who.IsAdmin() && who.AirtableID != "" && !t.AssignedTo(who.AirtableID) {
			continue
		}

		pt := ProjectTask{Task: t, ProjectName: name}
		data.TotalTasks++

		switch t.Status {
		case TaskPending:
			data.TasksByState.Pending++
		case TaskInProgress:
			data.TasksByState.InProgress++
		case TaskInReview:
			data.TasksByState.InReview++
		case TaskDone:
			data.TasksByState.Done++
		}

		if t.DueDate != nil {
			if due, ok := parseDate(*t.DueDate, loc); ok {
				withDates = append(withDates, dated{pt, due})

				if t.Status != TaskDone {
					switch days := daysBetween(today, due); {
					case days < 0:
						overdue = append(overdue, dated{pt, due})
					case days <= urgentWithinDays:
						urgent = append(urgent, dated{pt, due})
					}
				}
			}
		}

		if t.Status != TaskDone || t.CompletedDate == nil {
			continue
		}
		done, ok := parseDate(*t.CompletedDate, loc)
		if !ok {
			continue
		}
		if !done.Before(weekStart) {
			data.CompletedThisWeek++
		}
		if !done.Before(monthStart) {
			data.CompletedThisMonth++
		}
		if t.StartDate != nil {
			if start, ok := parseDate(*t.StartDate, loc); ok {
				if d := daysBetween(start, done); d >= 0 {
					spentDays += float64(d)
					spentTasks++
				}
			}
		}
	}

	byDue := func(a, b dated) int { return a.due.Compare(b.due) }
	collect := func(in []dated, limit int) []ProjectTask {
		slices.SortStableFunc(in, byDue)
		if limit > 0 && len(in) > limit {
			in = in[:limit]
		}
		out := make([]ProjectTask, len(in))
		for i, d := range in {
			out[i] = d.task
		}
		return out
	}

	data.OverdueTasks = collect(overdue, dashboardListMax)
	data.UrgentTasks = collect(urgent, dashboardListMax)
	data.DatedTasks = collect(withDates, 0)

	slices.SortStableFunc(data.ScheduledProjects, func(a, b Project) int {
		return cmp.Compare(*a.PromisedDate, *b.PromisedDate)
	})

	if spentTasks > 0 {
		avg := math.Round(spentDays/float64(spentTasks)*10) / 10
		data.AvgDaysPerTask = &avg
	}

	return data
}

// daysBetween counts whole calendar days from a to b. Both are midnights, so
// rounding absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
