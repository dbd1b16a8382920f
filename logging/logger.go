package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Environments the logger can be built for
const (
	Local       = "local"
	Development = "development"
	Production  = "production"
)

// New creates the zap logger for an environment. local gets the example
// logger, development the development logger and production the JSON
// production logger.
func New(environment string) (*zap.Logger, error) {
	switch environment {
	case Local, "":
		return zap.NewExample(), nil
	case Development:
		return zap.NewDevelopment()
	case Production:
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown environment %q", environment)
	}
}
