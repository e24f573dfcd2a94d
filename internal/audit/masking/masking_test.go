package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "", MaskSecret("   "))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "****hijk", MaskSecret("abcdefghijk"))
	assert.Equal(t, "inv_****", MaskSecret("inv_abc"))
	assert.Equal(t, "inv_****6789", MaskSecret("inv_123456789"))
}

func TestMaskJSON(t *testing.T) {
	assert.Nil(t, MaskJSON(nil))
	assert.Nil(t, MaskJSON(map[string]any{}))
	assert.Nil(t, MaskJSON(map[string]any{"  ": "value"}))

	masked := MaskJSON(map[string]any{
		"token": "inv_123456789",
		"count": 3,
		"nested": map[string]any{
			"secret": "abcdefghijk",
		},
		"list": []any{"abcdefghijk", 7},
	})

	assert.Equal(t, "inv_****6789", masked["token"])
	assert.Equal(t, 3, masked["count"])
	assert.Equal(t, map[string]any{"secret": "****hijk"}, masked["nested"])
	assert.Equal(t, []any{"****hijk", 7}, masked["list"])
}
