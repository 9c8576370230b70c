package logger

import "go.uber.org/zap"

// New builds the process logger. Development mode gets the human console
// encoder, production gets JSON.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
