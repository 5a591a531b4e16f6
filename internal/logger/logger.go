package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelQuiet Level = iota // Warnings and errors only
	LevelVerbose
	LevelDebug
)

// New builds a console logger for command line tools, tagged with the package it serves.  Setting
// USAGE2JSON_DEBUG in the environment forces debug output.
func New(pkg string, level Level) *zap.SugaredLogger {
	if _, debug := os.LookupEnv("USAGE2JSON_DEBUG"); debug {
		level = LevelDebug
	}

	var config zap.Config
	if level == LevelDebug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
		config.Sampling = nil
		if level == LevelVerbose {
			config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
	}

	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	return l.With(zap.String("package", pkg)).Sugar()
}
