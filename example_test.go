package tablero_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/tablero"
	"github.com/adamwoolhether/tablero/airtable"
	"github.com/adamwoolhether/tablero/throttle"
)

func ExampleNewThrottle() {
	q, err := tablero.NewThrottle()
	if err != nil {
		fmt.Println("queue error:", err)
		return
	}
	defer q.Close(context.Background())

	fmt.Println(q.MinDelay(), q.PendingCount())
	// Output:
	// 220ms 0
}

func ExampleNewAirtable() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"records":[{"id":"recP1","fields":{"Nombre del Proyecto":"Tesis"}}]}`)
	}))
	defer ts.Close()

	q, err := tablero.NewThrottle(throttle.WithMinDelay(10 * time.Millisecond))
	if err != nil {
		fmt.Println("queue error:", err)
		return
	}
	defer q.Close(context.Background())

	at, err := tablero.NewAirtable(q, "patEXAMPLE", "appEXAMPLE", airtable.WithBaseURL(ts.URL))
	if err != nil {
		fmt.Println("client error:", err)
		return
	}

	recs, err := at.ListAll(context.Background(), "Proyectos", airtable.ListOptions{})
	if err != nil {
		fmt.Println("list error:", err)
		return
	}

	fmt.Println(recs[0].ID, recs[0].Fields.String("Nombre del Proyecto"))
	// Output:
	// recP1 Tesis
}
