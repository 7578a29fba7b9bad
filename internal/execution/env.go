package execution

import (
	"os"
	"strings"

	"testbackend/internal/config"
)

const (
	// ReportEnvVar names the file the runner writes its report to
	ReportEnvVar = "TEST_BACKEND_REPORT"

	settingsEnvVar   = "DJANGO_SETTINGS_MODULE"
	unbufferedEnvVar = "PYTHONUNBUFFERED"
	instrumentEnvVar = "TEST_INSTRUMENT_URL_COVERAGE"
)

// Environment returns the process environment for the application under
// test: settings selector, unbuffered output and URL instrumentation on top
// of os.Environ, followed by overrides.
func Environment(cfg *config.Config, overrides ...[]string) []string {
	env := MergeEnv(os.Environ(), []string{
		settingsEnvVar + "=" + cfg.SettingsModule,
		unbufferedEnvVar + "=y",
		instrumentEnvVar + "=TRUE",
	})
	for _, o := range overrides {
		env = MergeEnv(env, o)
	}
	return env
}

// MergeEnv applies overrides to base. Overridden keys are moved after the
// untouched base entries; the last override of a key wins, and an override
// with an empty value removes the key.
func MergeEnv(base, overrides []string) []string {
	final := make(map[string]string, len(overrides))
	var keys []string
	for _, kv := range overrides {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := final[key]; !ok {
			keys = append(keys, key)
		}
		final[key] = kv
	}

	out := make([]string, 0, len(base)+len(keys))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := final[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	for _, key := range keys {
		if kv := final[key]; kv != key+"=" {
			out = append(out, kv)
		}
	}
	return out
}
