package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the config file on change and hands the re-decoded config to
// onChange. It is a no-op when no config file is in use.
func Watch(cfg *Config, onChange func(*Config), onError func(error)) {
	if cfg.file == "" {
		return
	}

	v := newViper()
	v.SetConfigFile(cfg.file)
	if err := v.ReadInConfig(); err != nil {
		onError(fmt.Errorf("watch: %w", err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			onError(err)
			return
		}
		next.file = cfg.file
		onChange(next)
	})
	v.WatchConfig()
}
