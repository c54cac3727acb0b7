// internal/browser/options_test.go
package browser

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/webtester/internal/config"
)

// flagValue returns the value of the last occurrence of name, which is the one
// chromedp applies.
func flagValue(flags []launchFlag, name string) (any, bool) {
	var (
		value any
		found bool
	)
	for _, f := range flags {
		if f.name == name {
			value, found = f.value, true
		}
	}
	return value, found
}

func TestLaunchFlags(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		flags := launchFlags(config.NewDefaultConfig().Browser())

		v, ok := flagValue(flags, "headless")
		assert.True(t, ok)
		assert.Equal(t, true, v)
		v, _ = flagValue(flags, "ignore-certificate-errors")
		assert.Equal(t, false, v)
		_, ok = flagValue(flags, "allow-insecure-localhost")
		assert.False(t, ok)
	})

	t.Run("HeadlessDisabled", func(t *testing.T) {
		v, _ := flagValue(launchFlags(config.BrowserConfig{Headless: false}), "headless")
		assert.Equal(t, false, v)
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		flags := launchFlags(config.BrowserConfig{IgnoreTLSErrors: true})
		v, _ := flagValue(flags, "ignore-certificate-errors")
		assert.Equal(t, true, v)
		_, ok := flagValue(flags, "allow-insecure-localhost")
		assert.True(t, ok)
	})

	t.Run("WithCustomArgs", func(t *testing.T) {
		flags := launchFlags(config.BrowserConfig{
			Headless: true,
			Args:     []string{"--lang=de-DE", "--custom-arg", "--", "--headless=new"},
		})
		v, _ := flagValue(flags, "lang")
		assert.Equal(t, "de-DE", v)
		v, _ = flagValue(flags, "custom-arg")
		assert.Equal(t, true, v)
		v, _ = flagValue(flags, "headless")
		assert.Equal(t, "new", v, "custom args override derived flags")
		_, ok := flagValue(flags, "")
		assert.False(t, ok)
	})

	t.Run("ContainerFlags", func(t *testing.T) {
		_, ok := flagValue(launchFlags(config.BrowserConfig{}), "no-sandbox")
		assert.Equal(t, runtime.GOOS == "linux", ok)
	})
}

func TestAllocatorOptions(t *testing.T) {
	base := len(AllocatorOptions(config.BrowserConfig{}))

	withExtras := AllocatorOptions(config.BrowserConfig{
		ExecPath: "/usr/bin/chromium",
		Viewport: map[string]int{"width": 1280, "height": 720},
	})
	assert.Len(t, withExtras, base+2, "exec path and window size are appended")

	halfViewport := AllocatorOptions(config.BrowserConfig{Viewport: map[string]int{"width": 1280}})
	assert.Len(t, halfViewport, base)
}
