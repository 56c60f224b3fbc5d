package airtable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/adamwoolhether/tablero/client"
)

const defaultMaxElapsed = 30 * time.Second

// Client talks to one Airtable base. Rate limiting is the job of the
// underlying [client.Client]; build it with [client.WithThrottle] so every
// call, retries included, goes through the shared queue.
type Client struct {
	http       *client.Client
	baseURL    *url.URL
	baseID     string
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// New returns a Client for the base identified by baseID.
func New(cl *client.Client, baseID string, optFns ...Option) (*Client, error) {
	if cl == nil {
		return nil, errors.New("http client must not be nil")
	}
	if baseID == "" {
		return nil, errors.New("base id must not be empty")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying airtable option: %w", err)
		}
	}

	c := Client{
		http:   cl,
		baseID: baseID,
		logger: slog.Default(),
	}

	if opts.baseURL != nil {
		c.baseURL = opts.baseURL
	} else {
		c.baseURL, _ = url.Parse(DefaultBaseURL)
	}

	if opts.logger != nil {
		c.logger = opts.logger
	}

	maxElapsed := defaultMaxElapsed
	if opts.maxElapsed != nil {
		maxElapsed = *opts.maxElapsed
	}

	switch {
	case opts.newBackOff != nil:
		c.newBackOff = opts.newBackOff
	case maxElapsed == 0:
		c.newBackOff = func() backoff.BackOff { return &backoff.StopBackOff{} }
	default:
		c.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxElapsed
			return b
		}
	}

	return &c, nil
}

// List fetches a single page of records from table.
func (c *Client) List(ctx context.Context, table string, opts ListOptions) (Page, error) {
	if table == "" {
		return Page{}, ErrMissingTable
	}

	page, err := call[Page](ctx, c, http.MethodGet, c.endpoint(table), listQuery(opts), nil)
	if err != nil {
		return Page{}, fmt.Errorf("list %s: %w", table, err)
	}

	return page, nil
}

// ListAll follows offsets until every matching record has been fetched.
// Each page is a separate call and so a separate trip through the throttle.
func (c *Client) ListAll(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	var records []Record

	for {
		page, err := c.List(ctx, table, opts)
		if err != nil {
			return nil, err
		}

		records = append(records, page.Records...)

		if page.Offset == "" {
			return records, nil
		}
		opts.Offset = page.Offset
	}
}

// Get fetches one record by ID.
func (c *Client) Get(ctx context.Context, table, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrMissingID
	}

	rec, err := call[Record](ctx, c, http.MethodGet, c.endpoint(table, id), nil, nil)
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", table, id, err)
	}

	return rec, nil
}

// Create inserts a record built from fields.
func (c *Client) Create(ctx context.Context, table string, fields Fields) (Record, error) {
	if table == "" {
		return Record{}, ErrMissingTable
	}

	rec, err := call[Record](ctx, c, http.MethodPost, c.endpoint(table), nil, fieldsBody{Fields: fields})
	if err != nil {
		return Record{}, fmt.Errorf("create in %s: %w", table, err)
	}

	return rec, nil
}

// Update patches the given fields of one record. A nil value clears the cell.
func (c *Client) Update(ctx context.Context, table, id string, fields Fields) (Record, error) {
	if id == "" {
		return Record{}, ErrMissingID
	}

	rec, err := call[Record](ctx, c, http.MethodPatch, c.endpoint(table, id), nil, fieldsBody{Fields: fields})
	if err != nil {
		return Record{}, fmt.Errorf("update %s/%s: %w", table, id, err)
	}

	return rec, nil
}

// UpdateBatch patches up to [MaxBatchSize] records in one call.
func (c *Client) UpdateBatch(ctx context.Context, table string, updates []Update) ([]Record, error) {
	switch {
	case len(updates) == 0:
		return nil, ErrEmptyBatch
	case len(updates) > MaxBatchSize:
		return nil, fmt.Errorf("%w: %d records, max %d", ErrBatchTooLarge, len(updates), MaxBatchSize)
	}

	for _, u := range updates {
		if u.ID == "" {
			return nil, ErrMissingID
		}
	}

	res, err := call[batchResult](ctx, c, http.MethodPatch, c.endpoint(table), nil, batchBody{Records: updates})
	if err != nil {
		return nil, fmt.Errorf("batch update %s: %w", table, err)
	}

	return res.Records, nil
}

// UpdateAll splits updates into batches of [MaxBatchSize] and writes them in
// order, one call per batch. It stops at the first failing batch; batches
// already written stay written.
func (c *Client) UpdateAll(ctx context.Context, table string, updates []Update) ([]Record, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	records := make([]Record, 0, len(updates))
	for batch := range slices.Chunk(updates, MaxBatchSize) {
		recs, err := c.UpdateBatch(ctx, table, batch)
		if err != nil {
			return records, err
		}
		records = append(records, recs...)
	}

	return records, nil
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	if id == "" {
		return ErrMissingID
	}

	if _, err := call[deleteResult](ctx, c, http.MethodDelete, c.endpoint(table, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}

	return nil
}

func (c *Client) endpoint(parts ...string) string {
	return path.Join(append([]string{"/", c.baseURL.Path, apiVersion, c.baseID}, parts...)...)
}

// call sends one request and decodes the response into T, retrying
// rate-limited and server-side failures. Each attempt builds a fresh
// request, so a retry is a new unit at the tail of the throttle queue
// rather than a repeat of the old one.
func call[T any](ctx context.Context, c *Client, method, p string, query url.Values, body any) (T, error) {
	u := client.URL(c.baseURL.Scheme, c.baseURL.Host, p, client.WithQuery(query))

	var reqOpts []client.RequestOption
	if body != nil {
		reqOpts = append(reqOpts, client.WithPayload(body))
	}

	hint := retryAfter{BackOff: c.newBackOff()}

	op := func() (T, error) {
		var dest T

		req, err := c.http.Request(ctx, u, method, reqOpts...)
		if err != nil {
			return dest, backoff.Permanent(err)
		}

		err = c.http.Do(req, http.StatusOK, client.WithDestination(&dest))
		if err == nil {
			return dest, nil
		}

		if statusErr, ok := errors.AsType[*client.UnexpectedStatusError](err); ok && retryable(method, statusErr) {
			hint.wait = statusErr.RetryAfter
			return dest, err
		}

		return dest, backoff.Permanent(err)
	}

	notify := func(err error, d time.Duration) {
		c.logger.Warn("airtable call retry", "method", method, "path", p, "in", d.String(), "error", err)
	}

	return backoff.RetryNotifyWithData(op, backoff.WithContext(&hint, ctx), notify)
}

// retryable reports whether a failed call may be sent again. A 429 was
// never processed and is always safe to repeat; a 5xx on a create may have
// landed, so only idempotent methods retry those.
func retryable(method string, err *client.UnexpectedStatusError) bool {
	if err.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return method != http.MethodPost && err.Temporary()
}

// retryAfter stretches the next backoff interval to honor a server's
// Retry-After hint.
type retryAfter struct {
	backoff.BackOff
	wait time.Duration
}

func (r *retryAfter) NextBackOff() time.Duration {
	next := r.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}

	next = max(next, r.wait)
	r.wait = 0

	return next
}

func listQuery(opts ListOptions) url.Values {
	q := url.Values{}

	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(min(opts.PageSize, MaxPageSize)))
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	for _, f := range opts.Fields {
		q.Add("fields[]", f)
	}
	if opts.Filter != "" {
		q.Set("filterByFormula", opts.Filter)
	}
	for i, s := range opts.Sort {
		q.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		if s.Direction != "" {
			q.Set(fmt.Sprintf("sort[%d][direction]", i), string(s.Direction))
		}
	}
	if opts.View != "" {
		q.Set("view", opts.View)
	}
	if opts.Offset != "" {
		q.Set("offset", opts.Offset)
	}

	return q
}
