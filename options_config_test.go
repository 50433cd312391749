package repcore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadOptionsFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "repcore.yaml")
	contents := `
dataDir: /var/lib/repcore
metaRetryIntervalMs: 500
defaultMaxReplicaCount: 5
metricsNamespacePrefix: myapp
learnerTimeoutMs: 15000
appName: orders
appType: kv
appId: 7
`
	assert.Nil(os.WriteFile(path, []byte(contents), 0o600))

	opts, err := LoadOptionsFile(path)
	assert.Nil(err)
	assert.Equal("/var/lib/repcore", opts.DataDir)
	assert.Equal(500*time.Millisecond, opts.MetaRetryInterval)
	assert.Equal(uint32(5), opts.DefaultMaxReplicaCount)
	assert.Equal("myapp", opts.MetricsNamespacePrefix)
	assert.Equal(15000*time.Millisecond, opts.LearnerTimeout)
	assert.Equal(AppInfo{AppID: 7, AppName: "orders", AppType: "kv"}, opts.AppInfo)
}

func TestLoadOptionsFile_MissingFile(t *testing.T) {
	assert := assert.New(t)

	_, err := LoadOptionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(err)
}
