package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/termout/internal/errors"
)

type keyKind uint8

const (
	flagKey keyKind = iota
	stringKey
	intKey
	durationKey
	colorKey
	selectorKey
	ignoredKey
)

// keyKinds lists every name accepted in a key=value file.
var keyKinds = map[string]keyKind{
	"no-tty":            flagKey,
	"no-ansi":           flagKey,
	"no-utf8":           flagKey,
	"no-emoji":          flagKey,
	"no-warns":          flagKey,
	"config-dump":       flagKey,
	"tty-foreground":    colorKey,
	"tty-background":    colorKey,
	"log-out":           selectorKey,
	"log-file":          stringKey,
	"debug-log":         stringKey,
	"debug-level":       stringKey,
	"debug-max-size-mb": intKey,
	"debug-max-backups": intKey,
	"lock-timeout":      durationKey,
	"lock-attempts":     intKey,
	"scratch-size":      intKey,
	"config":            ignoredKey,
}

// Keys returns the names accepted in a key=value config file.
func Keys() []string {
	out := make([]string, 0, len(keyKinds))
	for k, kind := range keyKinds {
		if kind != ignoredKey {
			out = append(out, k)
		}
	}
	return out
}

// FileErrors collects the rejected entries of one config file. Rejected
// entries are skipped; the accepted ones still apply.
type FileErrors struct {
	Path string
	Errs []*errors.ConfigError
}

// Error renders one "path:line:" header and one "[ERROR]: ..." line per
// rejected entry.
func (e *FileErrors) Error() string {
	var b strings.Builder
	for _, ce := range e.Errs {
		detail := ce.Value
		if detail == "" {
			detail = ce.Key
		}
		fmt.Fprintf(&b, "%s:%d:\n[ERROR]: %s '%s'\n", e.Path, ce.Line, ce.Message(), detail)
	}
	return b.String()
}

// Unwrap exposes the individual entry errors.
func (e *FileErrors) Unwrap() []error {
	out := make([]error, len(e.Errs))
	for i, ce := range e.Errs {
		out[i] = ce
	}
	return out
}

// Fatal reports whether any entry had an invalid value. Unknown names are
// not fatal.
func (e *FileErrors) Fatal() bool {
	for _, ce := range e.Errs {
		if ce.Severity() >= errors.SeverityCritical {
			return true
		}
	}
	return false
}

// ReadFile merges the settings stored at path into v. Files ending in
// .yaml, .yml, .toml or .json are decoded by viper; anything else is parsed
// as key=value lines. A *FileErrors return means the file was read but
// some entries were rejected.
func ReadFile(v *viper.Viper, fs afero.Fs, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml", ".json":
		v.SetFs(fs)
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return errors.NewConfigError("read config file",
				fmt.Errorf("%w: %w", errors.ErrConfigFile, err)).WithSource(path)
		}
		return nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.NewConfigError("read config file",
			fmt.Errorf("%w: %w", errors.ErrConfigFile, err)).WithSource(path)
	}
	settings, parseErr := ParseSettings(path, bytes.NewReader(data))
	if err := v.MergeConfigMap(settings); err != nil {
		return errors.NewConfigError("merge config file", err).WithSource(path)
	}
	if parseErr != nil {
		return parseErr
	}
	return nil
}

// ParseSettings parses key=value lines into typed settings. Blank lines and
// lines starting with '#' are skipped. A name without '=' is a flag and is
// set to true. Every rejected line is reported in the returned *FileErrors;
// the map holds the accepted entries.
func ParseSettings(source string, r io.Reader) (map[string]any, error) {
	settings := make(map[string]any)
	fe := &FileErrors{Path: source}

	sc := bufio.NewScanner(r)
	num := 0
	for sc.Scan() {
		num++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := ParseEntry(line)
		if err != nil {
			fe.Errs = append(fe.Errs, err.WithSource(source).WithLine(num))
			continue
		}
		if value != nil {
			settings[key] = value
		}
	}
	if err := sc.Err(); err != nil {
		return settings, errors.NewConfigError("read config file",
			fmt.Errorf("%w: %w", errors.ErrConfigFile, err)).WithSource(source)
	}
	if len(fe.Errs) > 0 {
		return settings, fe
	}
	return settings, nil
}

// ParseEntry parses one "name" or "name=value" entry, as written in a
// config file or after the leading "--" on a command line. The returned
// value is typed for its key; ignored keys return a nil value.
func ParseEntry(entry string) (string, any, *errors.ConfigError) {
	key, raw, hasValue := strings.Cut(entry, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	raw = strings.TrimSpace(raw)

	kind, ok := keyKinds[key]
	if !ok {
		msg := "Unrecognized parameter"
		if !hasValue {
			msg = "Unrecognized flag"
		}
		return key, nil, errors.NewConfigError(msg, errors.ErrUnknownKey).
			WithKey(key).WithSeverity(errors.SeverityWarning)
	}
	if kind == ignoredKey {
		return key, nil, nil
	}
	if kind == flagKey && !hasValue {
		return key, true, nil
	}
	if !hasValue {
		return key, nil, badValue("Expected '=' in parameter", key, entry, errors.ErrMissingValue)
	}

	switch kind {
	case flagKey:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return key, nil, badValue("Invalid flag value", key, raw, err)
		}
		return key, b, nil
	case intKey:
		n, err := cast.ToIntE(raw)
		if err != nil {
			return key, nil, badValue("Invalid number", key, raw, err)
		}
		return key, n, nil
	case durationKey:
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return key, nil, badValue("Invalid duration", key, raw, err)
		}
		return key, d, nil
	case colorKey:
		c, err := ParseTTYColor(raw)
		if err != nil {
			return key, nil, badValue("Invalid "+strings.ReplaceAll(key, "-", " ")+" color", key, raw, err)
		}
		return key, c, nil
	case selectorKey:
		sel, err := ParseLogOut(raw)
		if err != nil {
			return key, nil, badValue("Invalid value for "+key, key, raw, err)
		}
		return key, sel, nil
	default:
		return key, raw, nil
	}
}

func badValue(msg, key, value string, cause error) *errors.ConfigError {
	if !errors.Is(cause, errors.ErrBadValue) && !errors.Is(cause, errors.ErrMissingValue) {
		cause = fmt.Errorf("%w: %w", errors.ErrBadValue, cause)
	}
	return errors.NewConfigError(msg, cause).
		WithKey(key).WithValue(value).WithSeverity(errors.SeverityCritical)
}
