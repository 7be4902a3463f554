package config

import "github.com/adrg/xdg"

// configRelPath is where blobd's config file lives relative to the
// user's XDG config home, e.g. ~/.config/blobd/config.toml on Linux.
const configRelPath = "blobd/config.toml"

// FilePath resolves blobd's platform-appropriate config file location,
// creating any missing parent directories. Grounded on mfinelli-modctl's
// use of adrg/xdg (cmd/root.go's xdg.ConfigFile call) for the same
// resolve-or-create behavior.
func FilePath() (string, error) {
	return xdg.ConfigFile(configRelPath)
}
