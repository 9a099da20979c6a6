package commands

import (
	"context"
	"os"
)

// foregrounder is the part of the session store that follows the job state.
type foregrounder interface {
	SetForeground(on bool)
}

// followForeground stops auto refresh when suspendSig arrives and starts it
// again on any other signal. suspend, if not nil, stops the process once auto
// refresh is off. It returns when ctx is done.
func followForeground(ctx context.Context, fg foregrounder, sigs <-chan os.Signal, suspendSig os.Signal, suspend func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if sig == suspendSig {
				fg.SetForeground(false)
				if suspend != nil {
					suspend()
				}
				continue
			}
			fg.SetForeground(true)
		}
	}
}
