package job

import (
	"sync"

	"github.com/jobdirectory/job-board/internal/debounce"
)

// ListController owns the browsing state of the public job directory: the
// current page, the raw and debounced search text and the last fetched page
// of results. Keystrokes update the raw text immediately but a fetch only
// happens once the debounced value settles; page flips always fetch, even
// mid-debounce.
//
// Fetches run asynchronously and may complete out of order. Every fetch
// carries a sequence number and a completion older than the newest applied
// one is discarded, so a slow stale response can never clobber a fresh
// window.
type ListController struct {
	store    Store
	pageSize int
	searchDb *debounce.Debouncer[string]

	// onError surfaces a failed fetch exactly once per attempt.
	onError func(error)
	// onChange fires after every applied fetch, failed or not.
	onChange func()

	mu            sync.Mutex
	page          int
	search        string
	settledSearch string
	window        []*JobPost
	loaded        bool
	closed        bool
	issued        uint64
	applied       uint64

	wg sync.WaitGroup
}

// ListState is a consistent snapshot of everything the caller renders.
type ListState struct {
	Jobs    []*JobPost
	Loaded  bool // false until the first fetch completes
	Page    int
	Search  string
	CanNext bool
	CanPrev bool
	// NoResults: first page came back empty. NoMoreResults: a later page came
	// back empty, the valid terminal state of the has-next heuristic.
	NoResults     bool
	NoMoreResults bool
}

type ListControllerOpts struct {
	Store     Store
	PageSize  int
	Debouncer *debounce.Debouncer[string]
	OnError   func(error)
	OnChange  func()
}

func NewListController(opts ListControllerOpts) *ListController {
	c := &ListController{
		store:    opts.Store,
		pageSize: opts.PageSize,
		searchDb: opts.Debouncer,
		onError:  opts.OnError,
		onChange: opts.OnChange,
		page:     1,
	}
	if c.onError == nil {
		c.onError = func(error) {}
	}
	if c.onChange == nil {
		c.onChange = func() {}
	}
	return c
}

// Start performs the initial fetch and begins consuming settled search
// values.
func (c *ListController) Start() {
	c.Fetch()
	if c.searchDb == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for settled := range c.searchDb.Settled() {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			if settled == c.settledSearch {
				// settled to the same value, nothing to refetch
				c.mu.Unlock()
				continue
			}
			c.settledSearch = settled
			c.mu.Unlock()
			c.Fetch()
		}
	}()
}

// SetSearch updates the raw search text. The fetch happens later, when the
// debounced value settles and differs from the previous settled one.
func (c *ListController) SetSearch(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.search = text
	c.mu.Unlock()
	if c.searchDb != nil {
		c.searchDb.Push(text)
	}
}

// NextPage advances iff the current window suggests another page exists.
func (c *ListController) NextPage() {
	c.mu.Lock()
	if c.closed || !c.canNextLocked() {
		c.mu.Unlock()
		return
	}
	c.page++
	c.mu.Unlock()
	c.Fetch()
}

// PrevPage goes back iff not already on the first page.
func (c *ListController) PrevPage() {
	c.mu.Lock()
	if c.closed || c.page <= 1 {
		c.mu.Unlock()
		return
	}
	c.page--
	c.mu.Unlock()
	c.Fetch()
}

// Fetch issues an asynchronous list request for the current page and settled
// search text. On failure the previous window stays visible and the error is
// reported once; there is no automatic retry.
func (c *ListController) Fetch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.issued++
	seq := c.issued
	req := BuildListRequest(ListQuery{
		Page:     c.page,
		PageSize: c.pageSize,
		Search:   c.settledSearch,
	})
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		jobs, err := c.store.List(req)
		c.apply(seq, jobs, err)
	}()
}

func (c *ListController) apply(seq uint64, jobs []*JobPost, err error) {
	c.mu.Lock()
	if c.closed || seq <= c.applied {
		c.mu.Unlock()
		return
	}
	c.applied = seq
	if err == nil {
		if jobs == nil {
			jobs = []*JobPost{}
		}
		c.window = jobs
		c.loaded = true
	}
	c.mu.Unlock()

	if err != nil {
		c.onError(err)
	}
	c.onChange()
}

func (c *ListController) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := ListState{
		Jobs:    c.window,
		Loaded:  c.loaded,
		Page:    c.page,
		Search:  c.search,
		CanNext: c.canNextLocked(),
		CanPrev: c.page > 1,
	}
	if c.loaded && len(c.window) == 0 {
		if c.page > 1 {
			st.NoMoreResults = true
		} else {
			st.NoResults = true
		}
	}
	return st
}

func (c *ListController) canNextLocked() bool {
	return c.loaded && len(c.window) == c.pageSize
}

// Close tears the controller down. In-flight fetches may still complete but
// their results are never applied.
func (c *ListController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	if c.searchDb != nil {
		c.searchDb.Close()
	}
}
