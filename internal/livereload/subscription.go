package livereload

// Subscription receives the Status values published by a Poller.
//
// A subscriber that falls behind only sees the latest Status; intermediate
// values published while it was busy are dropped.
type Subscription struct {
	poller *Poller
	next   chan Status // Buffered with size 1
}

// Subscribe creates a Subscription whose channel immediately holds the current
// Status of p.
func (p *Poller) Subscribe() *Subscription {
	sub := &Subscription{
		poller: p,
		next:   make(chan Status, 1),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sub.update(p.status)
	if p.subs == nil {
		p.subs = make(map[*Subscription]struct{})
	}
	p.subs[sub] = struct{}{}
	return sub
}

// C returns the channel on which new Status values are delivered. The channel
// is never closed.
func (s *Subscription) C() <-chan Status {
	return s.next
}

// Cancel stops delivery of new Status values. It is safe to call more than
// once.
func (s *Subscription) Cancel() {
	s.poller.mu.Lock()
	defer s.poller.mu.Unlock()
	delete(s.poller.subs, s)
}

// update must be called with the poller's lock held, which serializes all
// senders on s.next.
func (s *Subscription) update(st Status) {
	select {
	// If there is a pending value that the subscriber has not picked up, replace
	// it with the latest value.
	case <-s.next:
		s.next <- st

	// Otherwise, simply provide the next value.
	case s.next <- st:
	}
}
