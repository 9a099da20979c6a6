//go:build unix

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// watchForeground follows Ctrl-Z and fg/bg for the life of ctx.
func watchForeground(ctx context.Context, fg foregrounder) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTSTP, syscall.SIGCONT)
	go func() {
		defer signal.Stop(sigs)
		followForeground(ctx, fg, sigs, syscall.SIGTSTP, func() {
			_ = syscall.Kill(syscall.Getpid(), syscall.SIGSTOP)
		})
	}()
}
