package session

// Subscribe registers fn to receive every published snapshot. Delivery is
// ordered by Version and a snapshot older than one already delivered is
// dropped. fn runs on the goroutine that caused the change and must not call
// Login, Logout or Refresh. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.notifyMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.listeners, id)
		c.notifyMu.Unlock()
	}
}

func (c *Controller) publish(snap Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Version <= c.delivered {
		return
	}
	c.delivered = snap.Version
	for _, fn := range c.listeners {
		fn(snap)
	}
}
