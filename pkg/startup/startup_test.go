package startup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"networkinfo/pkg/testhelper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchAgentPlist(t *testing.T) {
	b, err := LaunchAgentPlist(Entry{Label: DefaultLabel, Program: "/Applications/Net & Info/networkinfo", Args: []string{"serve"}})
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, "<string>com.jamtur01.NetworkInfo</string>")
	assert.Contains(t, s, "<string>/Applications/Net &amp; Info/networkinfo</string>")
	assert.Contains(t, s, "<string>serve</string>")
	assert.Contains(t, s, "<key>RunAtLoad</key>")
}

func TestMacOSEnableDisable(t *testing.T) {
	home := t.TempDir()
	runner := testhelper.NewFakeRunner().On("/bin/launchctl*", "")
	m := &MacOSStartupManager{
		entry:  Entry{Label: DefaultLabel, Program: "/usr/local/bin/networkinfo", Args: []string{"serve"}, HomeDir: home},
		runner: runner,
	}
	ctx := context.Background()
	plist := filepath.Join(home, "Library/LaunchAgents", "com.jamtur01.NetworkInfo.plist")

	assert.Equal(t, plist, m.Location())
	assert.False(t, m.IsEnabled())

	require.NoError(t, m.Enable(ctx))
	assert.True(t, m.IsEnabled())
	assert.Equal(t, []string{"/bin/launchctl load " + plist}, runner.Calls())

	require.NoError(t, m.Disable(ctx))
	assert.False(t, m.IsEnabled())
	assert.Equal(t, 1, runner.CallCount("/bin/launchctl unload"))

	require.NoError(t, m.Disable(ctx))
	assert.Equal(t, 1, runner.CallCount("/bin/launchctl unload"))
}

func TestMacOSEnableLoadFailure(t *testing.T) {
	home := t.TempDir()
	runner := testhelper.NewFakeRunner().OnError("/bin/launchctl*", testhelper.ExitError("launchctl load", 5))
	m := &MacOSStartupManager{entry: Entry{Label: DefaultLabel, Program: "/bin/x", HomeDir: home}, runner: runner}

	assert.Error(t, m.Enable(context.Background()))
}

func TestLinuxEnableDisable(t *testing.T) {
	home := t.TempDir()
	m := &LinuxStartupManager{entry: Entry{Label: "networkinfo", Program: "/usr/bin/networkinfo", Args: []string{"serve"}, HomeDir: home}}
	ctx := context.Background()

	require.NoError(t, m.Enable(ctx))
	b, err := os.ReadFile(m.Location())
	require.NoError(t, err)
	assert.Contains(t, string(b), "Exec=/usr/bin/networkinfo serve")

	require.NoError(t, m.Disable(ctx))
	assert.False(t, m.IsEnabled())
	require.NoError(t, m.Disable(ctx))
}
