//go:build !darwin

package pathmon

import "context"

func routeChanges(context.Context) (<-chan struct{}, error) {
	return nil, errUnsupported
}
