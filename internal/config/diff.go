package config

import "reflect"

// ConfigDiff describes what changed between two configs. Only fields that
// can be safely hot-reloaded are tracked (the listen address is not, since
// changing it requires rebinding the listener, which the Watcher doesn't do).
type ConfigDiff struct {
	LogLevelChanged     bool
	NewLogLevel         LogLevel
	SourcesChanged      bool
	LyricsChanged       bool
	FiltersChanged      bool
	PlayerChanged       bool
	RoutePlannerChanged bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if !reflect.DeepEqual(old.Sources, new.Sources) {
		d.SourcesChanged = true
	}
	if old.Lyrics != new.Lyrics {
		d.LyricsChanged = true
	}
	if old.Filters != new.Filters {
		d.FiltersChanged = true
	}
	if old.Player != new.Player {
		d.PlayerChanged = true
	}
	if !reflect.DeepEqual(old.RoutePlanner, new.RoutePlanner) {
		d.RoutePlannerChanged = true
	}

	return d
}
