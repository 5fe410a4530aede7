package backend

import (
	"os"
	"sync"

	"networkinfo/internal/storage"

	"github.com/pelletier/go-toml/v2"
)

const PreferencesFile = "preferences.toml"

type AppPreferences struct {
	LastLaunchedVersion  string
	StartAtLogin         bool
	NotificationsEnabled bool
	// TestMode makes GeoIP and local IP return fixed values.
	TestMode bool
}

type Preferences struct {
	Application AppPreferences
}

func DefaultPreferences() *Preferences {
	return &Preferences{
		Application: AppPreferences{
			NotificationsEnabled: true,
		},
	}
}

func ReadPreferencesFile(filepath string) (*Preferences, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := DefaultPreferences()
	if err := toml.NewDecoder(f).Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

var writeLock sync.Mutex

// WritePreferencesFile saves p. A save that starts while another one is
// running is dropped.
func (p *Preferences) WritePreferencesFile(filepath string) error {
	if !writeLock.TryLock() {
		return nil
	}
	defer writeLock.Unlock()

	b, err := toml.Marshal(p)
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(filepath, b)
}
