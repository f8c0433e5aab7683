package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"cssfmt/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Prepare returns our standard logger - configured zap logger for use by the program.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	consoleLP, consoleHP := conf.consoleCores()

	fileCore, redirected, err := conf.fileCore(rpt)
	if err != nil {
		return nil, err
	}

	log := zap.New(zapcore.NewTee(consoleHP, consoleLP, fileCore), zap.AddCaller())
	if len(redirected) != 0 {
		// log was redirected - we need to report this
		log.Warn("Log file was redirected to new location", zap.String("location", redirected))
	}
	return log.Named(misc.GetAppName()), nil
}

// consoleCores splits console output: errors go to stderr, everything else
// allowed by level goes to stdout.
func (conf *LoggingConfig) consoleCores() (low, high zapcore.Core) {
	var minLevel zapcore.Level
	switch conf.ConsoleLogger.Level {
	case "normal":
		minLevel = zapcore.InfoLevel
	case "debug":
		minLevel = zapcore.DebugLevel
	default:
		return zapcore.NewNopCore(), zapcore.NewNopCore()
	}

	low = zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout)), zapcore.Lock(os.Stdout),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return minLevel <= lvl && lvl < zapcore.ErrorLevel
		}))
	high = zapcore.NewCore(newEncoder(consoleEncoderConfig(os.Stderr)), zapcore.Lock(os.Stderr), // filter errorVerbose
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		}))
	return low, high
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// fileCore opens file log if requested. When destination could not be
// opened log goes to temporary file, its name is returned.
func (conf *LoggingConfig) fileCore(rpt *Report) (zapcore.Core, string, error) {
	var (
		level = conf.FileLogger.Level
		mode  = conf.FileLogger.Mode
	)
	if rpt != nil {
		// if report is requested always set maximum available logging level for file logger
		level, mode = "debug", "overwrite"
	}

	var atom zap.AtomicLevel
	switch level {
	case "debug":
		atom = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "normal":
		atom = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		return zapcore.NewNopCore(), "", nil
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

	// capture panic log if possible
	if ef, err := openLog(conf.panicLogName(), mode); err == nil {
		capturePanics(ef, rpt)
	} else if ef, err = os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err == nil {
		capturePanics(ef, rpt)
	}

	if f, err := openLog(conf.FileLogger.Destination, mode); err == nil {
		rpt.Store("final.log", f.Name())
		return zapcore.NewCore(enc, zapcore.Lock(f), atom), "", nil
	}
	f, err := os.CreateTemp("", misc.GetAppName()+".*.log")
	if err != nil {
		return nil, "", fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
	}
	rpt.Store("final.log", f.Name())
	return zapcore.NewCore(enc, zapcore.Lock(f), atom), f.Name(), nil
}

func (conf *LoggingConfig) panicLogName() string {
	return filepath.Join(filepath.Dir(conf.FileLogger.Destination), misc.GetAppName()+"-panic.log")
}

// RemoveEmptyPanicLog stops capturing crash output and removes panic log if
// nothing was written there. Should be called after report is closed.
func (conf *LoggingConfig) RemoveEmptyPanicLog() error {
	if len(conf.FileLogger.Destination) == 0 {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})
	name := conf.panicLogName()
	if fi, err := os.Stat(name); err != nil || fi.Size() != 0 {
		return nil
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("unable to remove empty panic log file '%s': %w", name, err)
	}
	return nil
}

func openLog(name, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(name, flags, 0644)
}

func capturePanics(f *os.File, rpt *Report) {
	debug.SetCrashOutput(f, debug.CrashOptions{})
	rpt.Store("panic.log", f.Name())
	f.Close()
}

// When logging error to console - do not output verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	var newFields []zapcore.Field
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
