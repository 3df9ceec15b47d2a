package rest

import (
	"net/http"
	"runtime"
)

type versionResponse struct {
	Semver    string `json:"semver"`
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	Build     string `json:"build,omitempty"`
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(nodeVersion))
}

type infoResponse struct {
	Version      versionResponse `json:"version"`
	BuildTime    int64           `json:"buildTime"`
	Git          infoGit         `json:"git"`
	JVM          string          `json:"jvm"`
	Lavaplayer   string          `json:"lavaplayer"`
	SourceManagers []string      `json:"sourceManagers"`
	Filters      []string        `json:"filters"`
	Plugins      []infoPlugin    `json:"plugins"`
}

type infoGit struct {
	Branch     string `json:"branch"`
	Commit     string `json:"commit"`
	CommitTime int64  `json:"commitTime"`
}

type infoPlugin struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

var allFilters = []string{
	"volume", "equalizer", "karaoke", "timescale", "tremolo", "vibrato",
	"distortion", "rotation", "channelMix", "lowPass",
	"echo", "reverb", "compressor", "normalization", "chorus", "flanger", "phaser", "spatial",
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	var sourceManagers []string
	if h.cfg.Sources != nil {
		sourceManagers = h.cfg.Sources.Names()
	}

	writeJSON(w, http.StatusOK, infoResponse{
		Version:        versionResponse{Semver: nodeVersion, Major: 4, Minor: 0, Patch: 0},
		JVM:            runtime.Version(),
		SourceManagers: sourceManagers,
		Filters:        allFilters,
		Plugins:        []infoPlugin{},
	})
}
