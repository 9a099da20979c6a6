//go:build !unix

package commands

import "context"

func watchForeground(ctx context.Context, fg foregrounder) {}
