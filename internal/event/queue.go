package event

// DefaultQueueCap bounds the number of undelivered events. The consumer
// drains on a fixed tick, so the buffer only has to absorb one tick's worth
// of output from a chatty child.
const DefaultQueueCap = 4096

// Queue carries events from background producers (output reader, health
// poller, startup check) to a single consumer. Producers may push
// concurrently; events from one producer are delivered in push order.
// No ordering is promised across producers.
type Queue struct {
	ch chan Event
}

// NewQueue returns a queue with the given capacity (DefaultQueueCap when
// capacity <= 0).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// Push enqueues one event. When the buffer is full the oldest undelivered
// event is dropped so producers never block behind a stalled consumer.
func (q *Queue) Push(e Event) {
	for {
		select {
		case q.ch <- e:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Drain removes and returns every event queued at the time of the call.
// It never blocks; an empty queue yields nil.
func (q *Queue) Drain() []Event {
	var out []Event
	for {
		select {
		case e := <-q.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

// Len reports the number of undelivered events.
func (q *Queue) Len() int { return len(q.ch) }
