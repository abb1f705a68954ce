package covsim

import (
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// NewLogger returns a logfmt logger writing to w (stdout when nil).
func NewLogger(w io.Writer) kitlog.Logger {
	if w == nil {
		w = os.Stdout
	}
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	return kitlog.With(klog, "ts", kitlog.DefaultTimestampUTC)
}

// subsysLogger tags every entry with the subsystem; a nil logger discards everything.
func subsysLogger(l kitlog.Logger, subsys string) kitlog.Logger {
	if l == nil {
		return kitlog.NewNopLogger()
	}
	return kitlog.With(l, "subsys", subsys)
}
