package jsfunc

import (
	"io"
	"log"
	"os"
)

type logger struct {
	*log.Logger
	debug bool
}

func newLogger(vmID string, out io.Writer, debug bool) *logger {
	if out == nil {
		out = os.Stderr
	}
	short := vmID
	if len(short) > 8 {
		short = short[:8]
	}
	return &logger{
		Logger: log.New(out, "jsfunc["+short+"] ", log.Lmsgprefix),
		debug:  debug,
	}
}

func (lg *logger) debugf(format string, v ...any) {
	if lg == nil || !lg.debug {
		return
	}
	lg.Printf(format, v...)
}
