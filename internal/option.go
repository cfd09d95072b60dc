package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	out     io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(version string) Option {
	return func(a *application) {
		a.version = version
	}
}

// WithOutput sets where one-shot commands print their result.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
