package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = origVersion, origCommit, origDate })

	Version = "0.4.0"
	Commit = "0123456789abcdef"
	Date = "2026-10-01"

	info := Info()
	assert.Contains(t, info, "assistant 0.4.0")
	assert.Contains(t, info, "commit: 0123456,")
	assert.Contains(t, info, "2026-10-01")
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "assistant/"+Version, UserAgent())
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abcdefg", short("abcdefghij"))
	assert.Equal(t, "abc", short("abc"))
	assert.Equal(t, "", short(""))
}
