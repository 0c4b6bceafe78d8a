package crawl

// Queue collects page URLs in discovery order, accepting each URL once.
type Queue struct {
	items []string
	seen  map[string]bool
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{seen: make(map[string]bool)}
}

// Add enqueues url and reports whether it was new.
func (q *Queue) Add(url string) bool {
	if q.seen[url] {
		return false
	}
	q.seen[url] = true
	q.items = append(q.items, url)
	return true
}

// All returns the URLs in the order they were first added.
func (q *Queue) All() []string {
	return q.items
}
