package secrets

import "os"

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are silently omitted from the result map.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// WithDefaults wraps a Loader so that keys it does not return fall back to
// defaults, typically the values read from the YAML config at startup.
func WithDefaults(l Loader, defaults map[string]string) Loader {
	return func() (map[string]string, error) {
		vals, err := l()
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(defaults)+len(vals))
		for k, v := range defaults {
			if v != "" {
				out[k] = v
			}
		}
		for k, v := range vals {
			out[k] = v
		}
		return out, nil
	}
}
