package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/caravanai/caravan/internal/domain"
)

// defaultProviderVar names the key-file entry that selects the default
// provider.
const defaultProviderVar = "CARAVAN_DEFAULT_PROVIDER"

// readKeyFile parses an env-format file into a map. Missing file is not an
// error; malformed lines are skipped.
func readKeyFile(path string) (map[string]string, error) {
	out := map[string]string{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return out, nil
}

// writeKeyFile applies updates to the key file, preserving unrelated
// entries. An empty update value removes the entry. Known entries are
// written in a stable order: default provider first, then provider keys,
// then everything else.
func writeKeyFile(path string, updates map[string]string) error {
	existing, err := readKeyFile(path)
	if err != nil {
		return err
	}
	for k, v := range updates {
		if v == "" {
			delete(existing, k)
		} else {
			existing[k] = v
		}
	}

	known := map[string]bool{defaultProviderVar: true}
	var b strings.Builder
	if v, ok := existing[defaultProviderVar]; ok {
		fmt.Fprintf(&b, "%s=%q\n", defaultProviderVar, v)
	}
	for _, p := range domain.Providers() {
		known[p.EnvVar()] = true
		if v, ok := existing[p.EnvVar()]; ok {
			fmt.Fprintf(&b, "%s=%q\n", p.EnvVar(), v)
		}
	}

	var rest []string
	for k := range existing {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, "%s=%q\n", k, existing[k])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		// Double-quoted values carry Go escaping from writeKeyFile.
		if s[0] == '"' && s[len(s)-1] == '"' {
			if v, err := strconv.Unquote(s); err == nil {
				return v
			}
			return s[1 : len(s)-1]
		}
		if s[0] == '\'' && s[len(s)-1] == '\'' {
			return s[1 : len(s)-1]
		}
	}
	return s
}
