package notify

import (
	"context"
	"testing"

	"networkinfo/pkg/testhelper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSAScriptNotify(t *testing.T) {
	r := testhelper.NewFakeRunner().On("/usr/bin/osascript -e *", "")
	n := NewOSAScript(r)

	require.NoError(t, n.Notify(context.Background(), "Wi-Fi DNS Changed", "Connected to HomeWifi with DNS: 1.1.1.1 8.8.8.8"))

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `/usr/bin/osascript -e display notification "Connected to HomeWifi with DNS: 1.1.1.1 8.8.8.8" with title "Wi-Fi DNS Changed"`, calls[0])
}

func TestOSAScriptEscapesQuotes(t *testing.T) {
	r := testhelper.NewFakeRunner().On("/usr/bin/osascript -e *", "")
	require.NoError(t, NewOSAScript(r).Notify(context.Background(), `Say "hi"`, `back\slash`))

	assert.Contains(t, r.Calls()[0], `"back\\slash" with title "Say \"hi\""`)
}

func TestOSAScriptReturnsError(t *testing.T) {
	err := NewOSAScript(testhelper.NewFakeRunner()).Notify(context.Background(), "t", "b")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	assert.NoError(t, Disabled{}.Notify(context.Background(), "t", "b"))
}
