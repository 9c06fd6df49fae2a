package transfer

import (
	"net/http"
	"sync"
)

// Progress is a snapshot of a running transfer. Total is nil when the
// source does not report a length.
type Progress struct {
	Completed int64
	Total     *int64
}

// Percent returns the completed share in [0,100], or -1 when Total is unknown
func (p Progress) Percent() float64 {
	if p.Total == nil || *p.Total <= 0 {
		return -1
	}
	return float64(p.Completed) * 100 / float64(*p.Total)
}

// Hooks receive transfer events. Either func may be nil.
type Hooks struct {
	OnProgress  func(Progress)
	OnCompleted func(Progress)
}

func (h Hooks) progress(p Progress) {
	if h.OnProgress != nil {
		h.OnProgress(p)
	}
}

func (h Hooks) completed(p Progress) {
	if h.OnCompleted != nil {
		h.OnCompleted(p)
	}
}

// HeaderCache keeps the response headers of completed transfers keyed by source
type HeaderCache struct {
	mu      sync.RWMutex
	entries map[string]http.Header
}

// NewHeaderCache creates an empty cache
func NewHeaderCache() *HeaderCache {
	return &HeaderCache{entries: make(map[string]http.Header)}
}

// Put stores a copy of h for source
func (c *HeaderCache) Put(source string, h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[source] = h.Clone()
}

// Get returns a copy of the headers cached for source
func (c *HeaderCache) Get(source string) (http.Header, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[source]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}

// Delete drops the entry for source
func (c *HeaderCache) Delete(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, source)
}

// transferState is shared between the streaming goroutine and its callbacks
type transferState struct {
	mu              sync.Mutex
	progress        Progress
	cancelRequested bool
	err             error
}

func (s *transferState) advance(n int64, total *int64) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Completed += n
	s.progress.Total = total
	return s.snapshot()
}

func (s *transferState) snapshot() Progress {
	p := s.progress
	if p.Total != nil {
		t := *p.Total
		p.Total = &t
	}
	return p
}

func (s *transferState) final() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// requestCancel records err and asks the stream to stop at the next chunk.
// The first recorded error wins.
func (s *transferState) requestCancel(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRequested = true
	if s.err == nil {
		s.err = err
	}
}

func (s *transferState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *transferState) cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelRequested
}

func (s *transferState) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
