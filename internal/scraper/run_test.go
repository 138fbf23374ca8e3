package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyResultsPage = `<html><head><title>Job Search | Upwork</title></head><body><div data-test="job-tile-list"></div></body></html>`

const blockedPage = `<html><head><title>Just a moment...</title></head><body></body></html>`

// resultsPage renders a listings page with one card per id; an empty id
// renders a card without any job id.
func resultsPage(ids ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><head><title>Job Search | Upwork</title></head><body><div data-test="job-tile-list">`)
	for _, id := range ids {
		if id == "" {
			sb.WriteString(`<article data-test="JobTile"><a data-test="job-title-link" href="/nx/search/">No id here</a></article>`)
			continue
		}
		fmt.Fprintf(&sb,
			`<article data-test="JobTile" data-job-id="%s"><a data-test="job-title-link" href="/jobs/~%s/">Job %s</a></article>`,
			id, id, id)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

// fakeFetcher serves canned bodies per page; errs holds leading failures to
// inject per page. Unlisted pages serve the empty results page.
type fakeFetcher struct {
	responses map[int][]string
	errs      map[int]int
	calls     int
}

func (f *fakeFetcher) Fetch(_ context.Context, req PageRequest) (string, error) {
	f.calls++
	if f.errs[req.Page] > 0 {
		f.errs[req.Page]--
		return "", errors.New("connection reset")
	}
	bodies := f.responses[req.Page]
	if len(bodies) == 0 {
		return emptyResultsPage, nil
	}
	body := bodies[0]
	if len(bodies) > 1 {
		f.responses[req.Page] = bodies[1:]
	}
	return body, nil
}

func newTestRunner(f *fakeFetcher, cfg RunConfig) *Runner {
	r := NewRunner(f, cfg)
	r.sleep = func(time.Duration) {}
	r.normalizer = testNormalizer()
	return r
}

func TestRun_CapTruncatesLastPage(t *testing.T) {
	f := &fakeFetcher{responses: map[int][]string{
		1: {resultsPage("a1", "a2", "a3")},
		2: {resultsPage("b1", "b2", "b3")},
	}}
	r := newTestRunner(f, RunConfig{MaxItems: 5, MaxPages: 10})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Equal(t, 2, summary.PagesFetched)
	require.Len(t, records, 5)
	//relevance order preserved, third candidate of page 2 truncated
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.JobID)
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, ids)
}

func TestRun_EmptyFirstPageIsDone(t *testing.T) {
	f := &fakeFetcher{}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 10})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Equal(t, 1, summary.PagesFetched)
	assert.Empty(t, records)
	assert.Empty(t, summary.Errors)
}

func TestRun_TransientFetchFailuresRecover(t *testing.T) {
	f := &fakeFetcher{
		responses: map[int][]string{1: {resultsPage("a1")}},
		errs:      map[int]int{1: 2},
	}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 1, RetryLimit: 3})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Len(t, records, 1)
	//retries recovered, so the summary carries no error entries
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 3, f.calls)
}

func TestRun_ExhaustedRetriesKeepPartialResults(t *testing.T) {
	f := &fakeFetcher{
		responses: map[int][]string{1: {resultsPage("a1", "a2")}},
		errs:      map[int]int{2: 99},
	}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 5, RetryLimit: 3})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Status)
	//page 1 results survive the page 2 failure
	assert.Len(t, records, 2)
	assert.Equal(t, 1, summary.PagesFetched)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "transport", summary.Errors[0].Kind)
	assert.Equal(t, 2, summary.Errors[0].Page)
}

func TestRun_UnrecognizedPageRefetchedOnce(t *testing.T) {
	f := &fakeFetcher{responses: map[int][]string{
		1: {blockedPage, resultsPage("a1")},
	}}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 1})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, f.calls)
}

func TestRun_PersistentlyUnrecognizedPageFails(t *testing.T) {
	f := &fakeFetcher{responses: map[int][]string{
		1: {blockedPage, blockedPage},
	}}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 1})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Empty(t, records)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "extraction", summary.Errors[0].Kind)
}

func TestRun_RejectionsCountedNotFatal(t *testing.T) {
	f := &fakeFetcher{responses: map[int][]string{
		1: {resultsPage("a1", "")},
	}}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 1})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, summary.RejectedCount)
	assert.Equal(t, 1, summary.RecordCount)
}

func TestRun_DuplicateIDsAcrossPagesDropped(t *testing.T) {
	f := &fakeFetcher{responses: map[int][]string{
		1: {resultsPage("a1", "a2")},
		2: {resultsPage("a2", "a3")},
	}}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 2})

	records, _, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.JobID)
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)
}

func TestRun_MaxPagesBound(t *testing.T) {
	f := &fakeFetcher{responses: map[int][]string{
		1: {resultsPage("a1")},
		2: {resultsPage("b1")},
		3: {resultsPage("c1")},
	}}
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 2})

	records, summary, err := r.Run(context.Background(), SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Equal(t, 2, summary.PagesFetched)
	assert.Len(t, records, 2)
}

func TestRun_CancellationReturnsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeFetcher{responses: map[int][]string{
		1: {resultsPage("a1")},
	}}
	//cancel as soon as the first page has been served
	wrapped := fetchFunc(func(c context.Context, req PageRequest) (string, error) {
		body, err := f.Fetch(c, req)
		cancel()
		return body, err
	})
	r := newTestRunner(f, RunConfig{MaxItems: 100, MaxPages: 5})
	r.fetcher = wrapped

	records, summary, err := r.Run(ctx, SearchQuery{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Len(t, records, 1)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "cancelled", summary.Errors[0].Kind)
}

func TestRun_InvalidQueryRejectedBeforeFetching(t *testing.T) {
	f := &fakeFetcher{}
	r := newTestRunner(f, RunConfig{})

	_, _, err := r.Run(context.Background(), SearchQuery{})
	var iqe *InvalidQueryError
	assert.ErrorAs(t, err, &iqe)
	assert.Zero(t, f.calls)
}

type fetchFunc func(ctx context.Context, req PageRequest) (string, error)

func (f fetchFunc) Fetch(ctx context.Context, req PageRequest) (string, error) {
	return f(ctx, req)
}
