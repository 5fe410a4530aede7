package notify

import (
	"context"
	"strings"
	"time"

	"networkinfo/internal/executor"

	"go.uber.org/zap"
)

const IdentifierPrefix = "com.jamtur01.NetworkInfo"

type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// OSAScript posts macOS user notifications through osascript.
type OSAScript struct {
	runner executor.Runner
}

func NewOSAScript(r executor.Runner) *OSAScript {
	return &OSAScript{runner: r}
}

func (n *OSAScript) Notify(ctx context.Context, title, body string) error {
	script := `display notification "` + escape(body) + `" with title "` + escape(title) + `"`
	id := IdentifierPrefix + "." + time.Now().Format("20060102150405.000")

	if _, err := n.runner.Run(ctx, 5*time.Second, "/usr/bin/osascript", "-e", script); err != nil {
		zap.S().Warnw("notification failed", "id", id, "title", title, "error", err)
		return err
	}
	zap.S().Infow("notification sent", "id", id, "title", title, "body", body)
	return nil
}

// Disabled drops notifications and only logs them.
type Disabled struct{}

func (Disabled) Notify(_ context.Context, title, body string) error {
	zap.S().Debugw("notification suppressed", "title", title, "body", body)
	return nil
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
