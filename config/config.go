package config

import (
	"bytes"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = "elu_browser.yaml"

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // "json" or "console"
	Output      string `yaml:"output"`
	Development bool   `yaml:"development"`
	TraceDir    string `yaml:"trace_dir"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"`
}

type Config struct {
	Encoding           string     `yaml:"encoding"`
	TextureDirectories []string   `yaml:"texture_directories"`
	BoneTail           [3]float32 `yaml:"bone_tail"`
	Log                LogConfig  `yaml:"log"`
	Web                WebConfig  `yaml:"web"`
}

func Default() *Config {
	return &Config{
		Encoding: EncodingASCII,
		BoneTail: [3]float32{0, 0.5, 0},
		Log: LogConfig{
			Level:    "info",
			Format:   "console",
			TraceDir: "logs",
		},
		Web: WebConfig{
			Addr: ":8000",
		},
	}
}

// Load reads a yaml config on top of Default. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "Cannot read config %q", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "Cannot parse config %q", path)
	}

	if _, err := LookupEncoding(cfg.Encoding); err != nil {
		return nil, errors.Wrapf(err, "Invalid config %q", path)
	}

	return cfg, nil
}

func (c *Config) BoneTailVec() mgl32.Vec3 {
	return mgl32.Vec3(c.BoneTail)
}

func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrapf(err, "Failed to marshal yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "Failed to close yaml encoder")
	}
	return buf.Bytes(), nil
}
