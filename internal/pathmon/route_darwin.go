//go:build darwin

package pathmon

import (
	"context"
	"os"

	"go.uber.org/zap"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"
)

// routeChanges opens a PF_ROUTE socket and signals on every interface,
// address or route message the kernel broadcasts.
func routeChanges(ctx context.Context) (<-chan struct{}, error) {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	f := os.NewFile(uintptr(fd), "route")

	ch := make(chan struct{}, 1)
	go func() {
		<-ctx.Done()
		f.Close()
	}()
	go func() {
		defer close(ch)
		buf := make([]byte, os.Getpagesize()*4)
		for {
			n, err := f.Read(buf)
			if err != nil {
				if ctx.Err() == nil {
					zap.S().Warnw("route socket read failed", "error", err)
				}
				return
			}
			msgs, err := route.ParseRIB(route.RIBTypeRoute, buf[:n])
			if err != nil || !relevant(msgs) {
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch, nil
}

func relevant(msgs []route.Message) bool {
	for _, m := range msgs {
		switch m.(type) {
		case *route.RouteMessage, *route.InterfaceMessage, *route.InterfaceAddrMessage:
			return true
		}
	}
	return false
}
