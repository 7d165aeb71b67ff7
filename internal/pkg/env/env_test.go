package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_PrefersLoadedFile(t *testing.T) {
	Env = map[string]string{"TELFERA_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("TELFERA_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("TELFERA_TEST_KEY", "def"))
}

func TestGetEnv_FallsBackToOSAndDefault(t *testing.T) {
	Env = nil
	t.Setenv("TELFERA_TEST_OS", "from-os")

	assert.Equal(t, "from-os", GetEnv("TELFERA_TEST_OS", "def"))
	assert.Equal(t, "def", GetEnv("TELFERA_TEST_MISSING", "def"))
}

func TestGetIntAndBool(t *testing.T) {
	Env = map[string]string{
		"PORT_OK":  "6379",
		"PORT_BAD": "sixty",
		"FLAG_ON":  "true",
		"FLAG_BAD": "maybe",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 6379, GetInt("PORT_OK", 1))
	assert.Equal(t, 1, GetInt("PORT_BAD", 1))
	assert.Equal(t, 7, GetInt("PORT_MISSING", 7))

	assert.True(t, GetBool("FLAG_ON", false))
	assert.True(t, GetBool("FLAG_BAD", true))
	assert.False(t, GetBool("FLAG_MISSING", false))
}

func TestIsDev(t *testing.T) {
	Env = map[string]string{"APP_ENV": "dev"}
	t.Cleanup(func() { Env = nil })
	assert.True(t, IsDev())

	Env = map[string]string{"APP_ENV": "prod"}
	assert.False(t, IsDev())
}
