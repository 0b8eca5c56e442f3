package internal

import "errors"

// Option configures the application before startup.
type Option func(*application)

// application carries everything the entrypoints need to run.
type application struct {
	config *Config
}

// WithConfig supplies the parsed configuration. Every entrypoint
// requires it.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// newApplication applies opts and validates the result.
func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errors.New("config is required")
	}
	return app, nil
}
