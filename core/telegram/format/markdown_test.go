package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMD(t *testing.T) {
	assert.Equal(t, `my\_shop \*best\* \[x] \`+"`"+`code\`+"`", MD("my_shop *best* [x] `code`"))
	assert.Equal(t, "Ali Shop", MD("Ali Shop"))
}
