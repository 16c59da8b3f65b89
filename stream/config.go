package stream

import (
	"errors"
	"fmt"
	"os"

	"github.com/matt-g-everett/lavatx/playback"
	"gopkg.in/yaml.v2"
)

// AnimationConfig names one animation of the gallery.
type AnimationConfig struct {
	Name     string          `yaml:"name"`
	Path     string          `yaml:"path"`
	Playback playback.Config `yaml:"playback"`
}

// UnmarshalYAML fills in playback defaults for keys the file leaves out.
func (a *AnimationConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain AnimationConfig
	p := plain{Playback: playback.DefaultConfig()}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*a = AnimationConfig(p)
	return nil
}

type Config struct {
	LogLevel  string  `yaml:"logLevel"`
	Pixels    int     `yaml:"pixels"`
	RefreshHz float64 `yaml:"refreshHz"`
	Mqtt      struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"clientId"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		QoS      byte   `yaml:"qos"`
		Topics   struct {
			Stream  string `yaml:"stream"`
			Command string `yaml:"command"`
			Status  string `yaml:"status"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	Api struct {
		Addr   string `yaml:"addr"`
		Static string `yaml:"static"`
	} `yaml:"api"`
	Animations []AnimationConfig `yaml:"animations"`
}

// DefaultConfig returns the settings used for keys a config file omits.
func DefaultConfig() Config {
	var c Config
	c.LogLevel = "info"
	c.Pixels = DefaultPixels
	c.RefreshHz = 60
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.ClientID = "lavatx"
	c.Mqtt.Topics.Stream = "home/xmastree/stream"
	c.Mqtt.Topics.Command = "home/xmastree/command"
	c.Mqtt.Topics.Status = "home/xmastree/status"
	c.Api.Addr = ":3000"
	c.Api.Static = "client/dist"
	return c
}

// ReadConfig decodes a YAML config file over the defaults.
func ReadConfig(path string) (Config, error) {
	c := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&c); err != nil {
		return c, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate checks the gallery and strip settings.
func (c Config) Validate() error {
	if c.Pixels < 1 || c.Pixels > MaxPixels {
		return fmt.Errorf("pixels must be in [1, %d], got %d", MaxPixels, c.Pixels)
	}
	if len(c.Animations) == 0 {
		return errors.New("no animations configured")
	}
	seen := make(map[string]bool)
	for _, a := range c.Animations {
		if a.Name == "" || a.Path == "" {
			return fmt.Errorf("animation %q needs a name and a path", a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate animation %q", a.Name)
		}
		seen[a.Name] = true
		if err := a.Playback.Validate(); err != nil {
			return fmt.Errorf("animation %q: %w", a.Name, err)
		}
	}
	return nil
}

// StreamTopic is where an animation's frames are published.
func (c Config) StreamTopic(name string) string {
	return c.Mqtt.Topics.Stream + "/" + name
}

// CommandTopic is where an animation's control commands arrive.
func (c Config) CommandTopic(name string) string {
	return c.Mqtt.Topics.Command + "/" + name
}

// StatusTopic is where an animation's frame changes are reported.
func (c Config) StatusTopic(name string) string {
	return c.Mqtt.Topics.Status + "/" + name
}
