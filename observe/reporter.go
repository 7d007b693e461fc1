package observe

import (
	"github.com/rs/zerolog"

	"github.com/comalice/hfsm"
)

// ZerologReporter logs machine errors at error level.
type ZerologReporter struct {
	Logger zerolog.Logger
}

// NewZerologReporter returns a reporter writing to logger.
func NewZerologReporter(logger zerolog.Logger) *ZerologReporter {
	return &ZerologReporter{Logger: logger}
}

func (r *ZerologReporter) LogError(message string) {
	r.Logger.Error().Str("err", message).Msg("state machine error")
}

var _ hfsm.ErrorReporter = (*ZerologReporter)(nil)
