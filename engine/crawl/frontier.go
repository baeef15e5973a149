package crawl

import "sync"

// Frontier owns the visited-set and pending queue for one crawl session.
// URLs are deduplicated on insert, so a URL handed out by Next is never
// handed out again. All methods are safe for concurrent use; the check-and
// -insert in Add is atomic.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]struct{}
	queue   []string
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Add enqueues url unless it has been seen before. Reports whether the URL
// was accepted. Callers pass normalized URLs.
func (f *Frontier) Add(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[url]; seen {
		return false
	}
	f.visited[url] = struct{}{}
	f.queue = append(f.queue, url)
	return true
}

// AddAll enqueues every unseen URL, returning how many were accepted.
func (f *Frontier) AddAll(urls []string) int {
	n := 0
	for _, u := range urls {
		if f.Add(u) {
			n++
		}
	}
	return n
}

// MarkSeen records url as visited without queueing it. Used for the seed,
// which is fetched out of band.
func (f *Frontier) MarkSeen(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited[url] = struct{}{}
}

// Next pops the oldest pending URL. ok is false when the queue is empty.
func (f *Frontier) Next() (url string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return "", false
	}
	url = f.queue[0]
	f.queue = f.queue[1:]
	return url, true
}

// Pending returns the queue length.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
