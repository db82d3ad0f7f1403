package host

import "log/slog"

// LogHost writes every host call to a logger at debug level.
type LogHost struct {
	logger *slog.Logger
	knob   string
}

func NewLogHost(logger *slog.Logger, knob string) *LogHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHost{logger: logger, knob: knob}
}

func (h *LogHost) SetComponentValue(p Payload) {
	attrs := []any{"knob", h.knob}
	if p.Angle != nil {
		attrs = append(attrs, "angle", *p.Angle)
	}
	if p.Value != nil {
		attrs = append(attrs, "value", *p.Value)
	}
	h.logger.Debug("component value", attrs...)
}

func (h *LogHost) SetFrameHeight() {
	h.logger.Debug("frame height", "knob", h.knob)
}
