// internal/browser/options.go
package browser

import (
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/webtester/internal/config"
)

type launchFlag struct {
	name  string
	value any
}

// launchFlags returns the command line flags derived from the configuration, in
// the order they are applied. Later flags override earlier ones.
func launchFlags(cfg config.BrowserConfig) []launchFlag {
	flags := []launchFlag{
		{"headless", cfg.Headless},
		{"disable-gpu", cfg.DisableGPU},
		{"disable-extensions", true},
		{"ignore-certificate-errors", cfg.IgnoreTLSErrors},
	}
	if cfg.IgnoreTLSErrors {
		flags = append(flags, launchFlag{"allow-insecure-localhost", true})
	}

	// Flags required inside containers.
	if runtime.GOOS == "linux" {
		flags = append(flags,
			launchFlag{"no-sandbox", true},
			launchFlag{"disable-dev-shm-usage", true},
		)
	}

	// Custom arguments from the configuration, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags = append(flags, launchFlag{name, value})
		} else {
			flags = append(flags, launchFlag{name, true})
		}
	}
	return flags
}

// AllocatorOptions assembles the exec allocator options for cfg on top of the
// chromedp defaults.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range launchFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	return opts
}
