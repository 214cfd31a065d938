package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	t.Setenv("APP_NAME", "cms")
	assert.Equal(t, "cms", String("APP_NAME", "fallback"))
	assert.Equal(t, "fallback", String("APP_NAME_UNSET", "fallback"))
}

func TestInt(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	assert.Equal(t, 9090, Int("APP_PORT", 8080))

	t.Setenv("APP_BAD", "not-a-number")
	assert.Equal(t, 8080, Int("APP_BAD", 8080))

	t.Setenv("APP_NEG", "-5")
	assert.Equal(t, 8080, Int("APP_NEG", 8080))
}

func TestBool(t *testing.T) {
	t.Setenv("APP_FLAG", "true")
	assert.True(t, Bool("APP_FLAG", false))
	assert.False(t, Bool("APP_FLAG_UNSET", false))
}

func TestRequire(t *testing.T) {
	t.Setenv("APP_SECRET", "s3cret")
	v, err := Require("APP_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	t.Setenv("APP_BLANK", "   ")
	_, err = Require("APP_BLANK")
	assert.Error(t, err)

	_, err = Require("APP_NEVER_SET")
	assert.Error(t, err)
}
