package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	info := VersionInfo()

	assert.Equal(t, Version(), info["version"])
	assert.Equal(t, Commit(), info["commit"])
	assert.Equal(t, "v1", info["weights_version"])
	assert.Equal(t, "v1", info["rule_table_version"])
	assert.NotEmpty(t, info["go_version"])
}
