//go:build integration

package e2e_test

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adamwoolhether/tablero/airtable"
)

const (
	testBase  = "appTEST"
	testToken = "patTEST"

	// fakePageCap forces ListAll to follow offsets even for small tables.
	fakePageCap = 2
)

// fakeAirtable is an in-memory Airtable base. It serves the subset of the
// REST API the board uses and records when each request arrived.
type fakeAirtable struct {
	mu       sync.Mutex
	tables   map[string][]airtable.Record
	seq      int
	arrivals []time.Time
	calls    []string
	limitN   int
	limited  int
}

func newFakeAirtable(t *testing.T) (*fakeAirtable, string) {
	t.Helper()

	fa := &fakeAirtable{tables: map[string][]airtable.Record{}}
	srv := httptest.NewServer(fa)
	t.Cleanup(srv.Close)

	return fa, srv.URL
}

func (fa *fakeAirtable) seed(table string, id string, fields airtable.Fields) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	fa.tables[table] = append(fa.tables[table], airtable.Record{ID: id, Fields: fields})
}

// rateLimitNext answers the next n requests with 429.
func (fa *fakeAirtable) rateLimitNext(n int) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	fa.limitN = n
}

func (fa *fakeAirtable) snapshot() (arrivals []time.Time, calls []string, limited int) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	return slices.Clone(fa.arrivals), slices.Clone(fa.calls), fa.limited
}

func (fa *fakeAirtable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	fa.arrivals = append(fa.arrivals, time.Now())

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"type": "AUTHENTICATION_REQUIRED"}})
		return
	}

	if fa.limitN > 0 {
		fa.limitN--
		fa.limited++
		w.Header().Set("Retry-After", "0")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": map[string]string{"type": "RATE_LIMIT_REACHED"}})
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/v0/"+testBase+"/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	table, id, _ := strings.Cut(rest, "/")

	fa.calls = append(fa.calls, r.Method+" "+rest)

	switch {
	case r.Method == http.MethodGet && id == "":
		fa.list(w, r, table)
	case r.Method == http.MethodPost && id == "":
		fa.create(w, r, table)
	case r.Method == http.MethodPatch && id == "":
		fa.batch(w, r, table)
	case r.Method == http.MethodPatch:
		fa.update(w, r, table, id)
	case r.Method == http.MethodDelete:
		fa.delete(w, table, id)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (fa *fakeAirtable) list(w http.ResponseWriter, r *http.Request, table string) {
	q := r.URL.Query()

	recs := slices.Clone(fa.tables[table])
	if field := q.Get("sort[0][field]"); field != "" {
		slices.SortStableFunc(recs, func(a, b airtable.Record) int {
			x, _ := a.Fields.Float(field)
			y, _ := b.Fields.Float(field)
			return cmp.Compare(x, y)
		})
	}

	size := fakePageCap
	if n, err := strconv.Atoi(q.Get("pageSize")); err == nil && n < size {
		size = n
	}
	start, _ := strconv.Atoi(q.Get("offset"))
	end := min(start+size, len(recs))

	page := airtable.Page{Records: recs[start:end]}
	if end < len(recs) {
		page.Offset = strconv.Itoa(end)
	}

	writeJSON(w, http.StatusOK, page)
}

func (fa *fakeAirtable) create(w http.ResponseWriter, r *http.Request, table string) {
	var body struct {
		Fields airtable.Fields `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	fa.seq++
	rec := airtable.Record{ID: fmt.Sprintf("recNEW%03d", fa.seq), CreatedTime: time.Now().UTC(), Fields: body.Fields}
	fa.tables[table] = append(fa.tables[table], rec)

	writeJSON(w, http.StatusOK, rec)
}

func (fa *fakeAirtable) update(w http.ResponseWriter, r *http.Request, table, id string) {
	var body struct {
		Fields airtable.Fields `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	rec, ok := fa.merge(table, id, body.Fields)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (fa *fakeAirtable) batch(w http.ResponseWriter, r *http.Request, table string) {
	var body struct {
		Records []airtable.Update `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if len(body.Records) > airtable.MaxBatchSize {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "TOO_MANY_RECORDS"})
		return
	}

	out := make([]airtable.Record, 0, len(body.Records))
	for _, u := range body.Records {
		rec, ok := fa.merge(table, u.ID, u.Fields)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
			return
		}
		out = append(out, rec)
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (fa *fakeAirtable) delete(w http.ResponseWriter, table, id string) {
	recs := fa.tables[table]
	i := slices.IndexFunc(recs, func(r airtable.Record) bool { return r.ID == id })
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		return
	}
	fa.tables[table] = slices.Delete(recs, i, i+1)

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// merge applies fields to a record; null clears the cell.
func (fa *fakeAirtable) merge(table, id string, fields airtable.Fields) (airtable.Record, bool) {
	recs := fa.tables[table]
	i := slices.IndexFunc(recs, func(r airtable.Record) bool { return r.ID == id })
	if i < 0 {
		return airtable.Record{}, false
	}

	if recs[i].Fields == nil {
		recs[i].Fields = airtable.Fields{}
	}
	for k, v := range fields {
		if v == nil {
			delete(recs[i].Fields, k)
			continue
		}
		recs[i].Fields[k] = v
	}

	return recs[i], true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
