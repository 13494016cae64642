package logger

import (
	"io"
	"log"
	"os"
)

// StdLogger writes lines through the standard log package.
// Stdout, file and writer loggers are all StdLoggers with a different destination.
// The event lines carry their own timestamp, so no log flags are set.
type StdLogger struct {
	logger     *log.Logger
	closer     io.Closer
	loggerType LoggerType
}

var _ Logger = (*StdLogger)(nil)

// NewStdoutLogger creates a new logger that writes to stdout
func NewStdoutLogger() *StdLogger {
	return &StdLogger{
		logger:     log.New(os.Stdout, "", 0),
		loggerType: LoggerTypeStdout,
	}
}

// NewWriterLogger creates a logger from any io.Writer.
// Thread safety depends on the underlying writer.
func NewWriterLogger(w io.Writer) *StdLogger {
	return &StdLogger{
		logger:     log.New(w, "", 0),
		loggerType: LoggerTypeWriter,
	}
}

// NewFileLogger creates a new logger that writes to the specified file path.
// The file is opened in append mode.
func NewFileLogger(filepath string) (*StdLogger, error) {
	file, err := os.OpenFile(filepath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	return &StdLogger{
		logger:     log.New(file, "", 0),
		closer:     file,
		loggerType: LoggerTypeFile,
	}, nil
}

func (s *StdLogger) Type() LoggerType {
	return s.loggerType
}

func (s *StdLogger) Printf(format string, args ...any) {
	s.logger.Printf(format, args...)
}

func (s *StdLogger) Println(message string) {
	s.logger.Println(message)
}

// Close closes the underlying file, if any
func (s *StdLogger) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
