// Package airtable is a small client for the Airtable REST API.
//
// It covers the calls a record-oriented backend needs: paged and exhaustive
// listing, single record reads and writes, batch updates and deletes.
//
//	q, _ := throttle.New()
//	hc, _ := client.Build(client.WithBearerToken(token), client.WithThrottle(q))
//	at, _ := airtable.New(hc, "appXXXXXXXXXXXXXX")
//
//	recs, err := at.ListAll(ctx, "Tareas", airtable.ListOptions{
//		Fields: []string{"Nombre de Tarea", "Estado"},
//		Filter: airtable.Equals("Estado", "Pendiente"),
//		Sort:   []airtable.Sort{{Field: "Orden", Direction: airtable.Asc}},
//	})
//
// Airtable allows five requests per second per base. The client does not
// limit itself; pass it a [client.Client] built with [client.WithThrottle]
// and share one queue across everything that talks to the same base.
//
// Calls answered with 429, and non-create calls answered with a 5xx, are
// retried with exponential backoff, honoring Retry-After. Each retry is a
// new request and queues behind whatever else is already waiting.
package airtable
