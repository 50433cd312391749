package repcore

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func millisToDuration(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// optionsFile is the on-disk shape LoadOptionsFile parses; only the
// fields that make sense outside a Go call site are exposed (a real
// *zerolog.Logger obviously isn't one of them).
type optionsFile struct {
	DataDir                string `yaml:"dataDir"`
	MetaRetryIntervalMs    int64  `yaml:"metaRetryIntervalMs"`
	DefaultMaxReplicaCount uint32 `yaml:"defaultMaxReplicaCount"`
	MetricsNamespacePrefix string `yaml:"metricsNamespacePrefix"`
	LearnerTimeoutMs       int64  `yaml:"learnerTimeoutMs"`
	AppName                string `yaml:"appName"`
	AppType                string `yaml:"appType"`
	AppID                  uint32 `yaml:"appId"`
}

// LoadOptionsFile reads path as YAML and returns the resulting
// Options, following the config-file convention the pack's other
// examples use for server bootstrap settings. Logger is left nil; the
// caller sets it (or lets NewReplica default it) since a logger isn't
// a serializable setting.
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}

	var f optionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Options{}, err
	}

	opts := Options{
		DataDir:                f.DataDir,
		MetaRetryInterval:      millisToDuration(f.MetaRetryIntervalMs),
		DefaultMaxReplicaCount: f.DefaultMaxReplicaCount,
		MetricsNamespacePrefix: f.MetricsNamespacePrefix,
		LearnerTimeout:         millisToDuration(f.LearnerTimeoutMs),
		AppInfo: AppInfo{
			AppID:   f.AppID,
			AppName: f.AppName,
			AppType: f.AppType,
		},
	}
	return opts, nil
}
