package auth

import (
	"context"
	"time"
)

// StartAutoRefresh starts the background refresh loop. Calling it again while
// running is a no-op.
func (c *Client) StartAutoRefresh() {
	c.autoMu.Lock()
	defer c.autoMu.Unlock()
	if c.autoCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	c.autoCancel = cancel
	c.autoStopped = stopped

	go func() {
		defer close(stopped)
		c.autoRefreshLoop(ctx)
	}()
	c.logger.Debug().Dur("tick", c.tick).Msg("auto refresh started")
}

// StopAutoRefresh stops the loop started by StartAutoRefresh and waits for it to exit.
func (c *Client) StopAutoRefresh() {
	c.autoMu.Lock()
	cancel, stopped := c.autoCancel, c.autoStopped
	c.autoCancel, c.autoStopped = nil, nil
	c.autoMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	c.logger.Debug().Msg("auto refresh stopped")
}

func (c *Client) autoRefreshLoop(ctx context.Context) {
	// First check right away, as a resumed app may hold an almost expired session.
	c.autoRefreshTick(ctx)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.autoRefreshTick(ctx)
		}
	}
}

func (c *Client) autoRefreshTick(ctx context.Context) {
	sess, err := c.current()
	if err != nil || sess == nil {
		return
	}
	if !sess.ExpiresWithin(tickThreshold*c.tick, c.now()) {
		return
	}
	if _, err := c.refresh(ctx, sess); err != nil && ctx.Err() == nil {
		c.logger.Warn().Err(err).Msg("auto refresh failed")
	}
}
