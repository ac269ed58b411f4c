package types

const (
	DefaultProductName      = "Flashpoint Launcher"
	DefaultProductDir       = "Flashpoint"
	DefaultInstallationPath = "./Flashpoint"
	DefaultChannel          = "Stable"
	DefaultChannelURL       = "https://nexus-dev.unstable.life/repository/components-test/components.xml"
)

// AppConfig is the product configuration read from bootstrapper.toml. A
// platform without an OsConfig has no installation candidate.
type AppConfig struct {
	Name    string    `toml:"name" json:"name" yaml:"name"`
	Windows *OsConfig `toml:"windows,omitempty" json:"windows,omitempty" yaml:"windows,omitempty"`
	Linux   *OsConfig `toml:"linux,omitempty" json:"linux,omitempty" yaml:"linux,omitempty"`
	Macos   *OsConfig `toml:"macos,omitempty" json:"macos,omitempty" yaml:"macos,omitempty"`
}

type OsConfig struct {
	DefaultPath        string            `toml:"default_path" json:"default_path" yaml:"default_path"`
	RelativeExecutable string            `toml:"relative_executable" json:"relative_executable" yaml:"relative_executable"`
	Channels           map[string]string `toml:"channels" json:"channels" yaml:"channels"`
	DefaultChannel     string            `toml:"default_channel" json:"default_channel" yaml:"default_channel"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Name: DefaultProductName,
		Windows: &OsConfig{
			DefaultPath:        "C:/Flashpoint",
			RelativeExecutable: "./Launcher/Flashpoint.exe",
			Channels:           map[string]string{DefaultChannel: DefaultChannelURL},
			DefaultChannel:     DefaultChannel,
		},
	}
}

func (c AppConfig) Clone() AppConfig {
	clone := c
	clone.Windows = c.Windows.clone()
	clone.Linux = c.Linux.clone()
	clone.Macos = c.Macos.clone()
	return clone
}

func (c *OsConfig) clone() *OsConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Channels != nil {
		clone.Channels = make(map[string]string, len(c.Channels))
		for name, url := range c.Channels {
			clone.Channels[name] = url
		}
	}
	return &clone
}
