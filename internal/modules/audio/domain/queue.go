package domain

// Queue is the ordered play queue of a session.
// Index 0 is the item currently loaded in the output sink; it stays in the queue
// until its playback completes or it is skipped.
type Queue struct {
	items []QueueItem
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		items: make([]QueueItem, 0),
	}
}

// IsEmpty returns true if the queue holds no items.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the total number of items, including the current one.
func (q *Queue) Len() int {
	return len(q.items)
}

// UpcomingLen returns the number of items after the current one.
func (q *Queue) UpcomingLen() int {
	return max(q.Len()-1, 0)
}

// Current returns the item at the head of the queue, or nil if the queue is empty.
func (q *Queue) Current() *QueueItem {
	if q.IsEmpty() {
		return nil
	}
	item := q.items[0]
	return &item
}

// Upcoming returns a copy of the items after the head.
func (q *Queue) Upcoming() []QueueItem {
	if q.Len() <= 1 {
		return []QueueItem{}
	}
	result := make([]QueueItem, q.Len()-1)
	copy(result, q.items[1:])
	return result
}

// List returns a copy of all items in the queue.
func (q *Queue) List() []QueueItem {
	result := make([]QueueItem, q.Len())
	copy(result, q.items)
	return result
}

// Append adds item(s) to the end of the queue.
func (q *Queue) Append(items ...QueueItem) {
	q.items = append(q.items, items...)
}

// PopFront removes and returns the head of the queue.
func (q *Queue) PopFront() (QueueItem, bool) {
	if q.IsEmpty() {
		return QueueItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Skip removes up to n items from the front and returns how many were removed.
// Negative n removes nothing.
func (q *Queue) Skip(n int) int {
	n = min(max(n, 0), q.Len())
	q.items = q.items[n:]
	return n
}

// RemoveUpcoming removes the item at a 1-based position among the upcoming items.
// It returns false and leaves the queue untouched if the position is out of range.
func (q *Queue) RemoveUpcoming(position int) (QueueItem, bool) {
	if position < 1 || position > q.UpcomingLen() {
		return QueueItem{}, false
	}

	item := q.items[position]
	q.items = append(q.items[:position:position], q.items[position+1:]...)
	return item, true
}

// ShuffleUpcoming reorders every item except the head using shuffle, which has the
// signature of rand.Shuffle. Queues with fewer than two upcoming items are left alone.
func (q *Queue) ShuffleUpcoming(shuffle func(n int, swap func(i, j int))) {
	if q.UpcomingLen() < 2 {
		return
	}

	upcoming := q.items[1:]
	shuffle(len(upcoming), func(i, j int) {
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	})
}

// Clear removes every item and returns how many were removed.
func (q *Queue) Clear() int {
	n := q.Len()
	q.items = make([]QueueItem, 0)
	return n
}
