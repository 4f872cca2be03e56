package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestBannerPlain(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "1.2.3", "", ""
	assert.Equal(t, "descgraph 1.2.3", Banner(false))

	GitCommit, BuildDate = "abc123", "2024-01-15"
	assert.Equal(t, "descgraph 1.2.3 (abc123) built 2024-01-15", Banner(false))
}

func TestColoredKeepsText(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = origVersion, origNoColor }()

	color.NoColor = true
	Version = "0.1.0-dev"
	assert.Equal(t, "0.1.0-dev", Colored())

	Version = "nightly"
	assert.Equal(t, "nightly", Colored())
}
