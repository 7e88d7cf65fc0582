package tilereader

import "fmt"

// ConfigurationError reports an invalid or unreachable source at construction
// time. Construction never yields a partially usable source.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tile source %q: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(source, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Source: source, Err: fmt.Errorf(format, args...)}
}
