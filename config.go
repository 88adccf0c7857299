package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the command-line flags; keys match flag names.
type fileConfig struct {
	Proxy       string `yaml:"proxy"`
	Target      string `yaml:"target"`
	Listen      string `yaml:"listen"`
	DebugListen string `yaml:"debug-listen"`

	DialTimeout        *time.Duration `yaml:"dial-timeout"`
	NegotiationTimeout *time.Duration `yaml:"negotiation-timeout"`
	TCPKeepAlive       string         `yaml:"tcp-keepalive"`

	LogLevel  string `yaml:"log-level"`
	LogFormat string `yaml:"log-format"`
}

func loadConfigFile(path string) (fileConfig, error) {
	var fc fileConfig

	f, err := os.Open(path)
	if err != nil {
		return fc, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("decode: %w", err)
	}
	return fc, nil
}

// apply sets every flag the file mentions that was not given explicitly.
func (fc fileConfig) apply(fs *pflag.FlagSet) error {
	values := map[string]string{
		"proxy":         fc.Proxy,
		"target":        fc.Target,
		"listen":        fc.Listen,
		"debug-listen":  fc.DebugListen,
		"tcp-keepalive": fc.TCPKeepAlive,
		"log-level":     fc.LogLevel,
		"log-format":    fc.LogFormat,
	}
	if fc.DialTimeout != nil {
		values["dial-timeout"] = fc.DialTimeout.String()
	}
	if fc.NegotiationTimeout != nil {
		values["negotiation-timeout"] = fc.NegotiationTimeout.String()
	}

	for name, v := range values {
		if v == "" || fs.Changed(name) {
			continue
		}
		if err := fs.Set(name, v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
