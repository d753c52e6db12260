package session

import (
	"time"
)

const sessionQueueCapacity = 16

type queueItem struct {
	input    Input
	reply    chan error
	queuedAt time.Time
}

// startLoop runs the single goroutine that feeds inputs to the state machine.
func (c *Controller) startLoop() {
	c.startOnce.Do(func() {
		if c.isClosed() {
			return
		}

		c.started.Store(true)
		go func() {
			defer close(c.done)
			defer c.bus.Close()

			for {
				select {
				case <-c.closeCh:
					return
				case item := <-c.queue:
					if wait := time.Since(item.queuedAt); wait > time.Second {
						logger.Debug("input waited long in queue", "session_id", c.id, "wait", wait)
					}
					err := c.process(item.input)
					if item.reply != nil {
						item.reply <- err
					}
					if c.finished() {
						c.end()
						return
					}
				}
			}
		}()
	})
}

func (c *Controller) end() {
	c.endOnce.Do(func() {
		close(c.closeCh)
		if !c.started.Load() {
			c.bus.Close()
		}
	})
}

func (c *Controller) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// dispatch hands input to the state machine and waits until it has been
// handled. Before the loop runs the input is handled on the caller's
// goroutine.
func (c *Controller) dispatch(input Input) error {
	if !c.started.Load() {
		if c.isClosed() {
			return c.closedErr()
		}
		err := c.process(input)
		if c.finished() {
			c.end()
		}
		return err
	}

	reply := make(chan error, 1)
	select {
	case c.queue <- queueItem{input: input, reply: reply, queuedAt: time.Now()}:
	case <-c.done:
		return c.closedErr()
	}

	select {
	case err := <-reply:
		return err
	case <-c.done:
		select {
		case err := <-reply:
			return err
		default:
			return c.closedErr()
		}
	}
}

// enqueue hands input to the loop without waiting. It reports false once the
// session has ended.
func (c *Controller) enqueue(input Input) bool {
	if c.isClosed() {
		return false
	}

	select {
	case <-c.closeCh:
		return false
	case c.queue <- queueItem{input: input, queuedAt: time.Now()}:
		return true
	}
}

// process reduces input and every follow-up input produced by its effects.
// It returns the error of a refused action.
func (c *Controller) process(input Input) error {
	c.processMu.Lock()
	defer c.processMu.Unlock()

	if c.isReleased() {
		switch input.(type) {
		case StartRequested:
			return c.closedErr()
		case StopRequested, SkipRequested, SkipConfirmed, SkipCancelled:
		default:
			return nil
		}
	}

	var refused error
	pending := []Input{input}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		c.mu.Lock()
		state, effects := Reduce(c.rules, c.state, next)
		c.state = state
		c.mu.Unlock()

		for _, effect := range effects {
			followUp, err := c.perform(effect)
			if err != nil && refused == nil {
				refused = err
			}
			if followUp != nil {
				pending = append(pending, followUp)
			}
		}
	}
	return refused
}

func (c *Controller) finished() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Phase.Terminal() || c.state.Stopped
}

func (c *Controller) closedErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Phase.Terminal() {
		return ErrTerminal
	}
	return ErrStopped
}
