package logger

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"
)

// lokiPush is the body of POST /loki/api/v1/push.
type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

// lokiStream values are [unix-nanos, line] pairs.
type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func newLokiPush(now time.Time, job, level, message string, attrs []slog.Attr) lokiPush {
	return lokiPush{
		Streams: []lokiStream{{
			Stream: map[string]string{"job": job, "level": level},
			Values: [][2]string{{
				strconv.FormatInt(now.UnixNano(), 10),
				encodeLine(now, level, message, attrs),
			}},
		}},
	}
}

// encodeLine renders one entry the way the stdout JSON handler would, so both
// sinks can be queried with the same keys.
func encodeLine(now time.Time, level, message string, attrs []slog.Attr) string {
	line := make(map[string]any, len(attrs)+3)
	for _, a := range attrs {
		line[a.Key] = a.Value.Resolve().Any()
	}
	line[slog.TimeKey] = now.Format(time.RFC3339Nano)
	line[slog.LevelKey] = level
	line[slog.MessageKey] = message

	b, err := json.Marshal(line)
	if err != nil {
		return strconv.Quote(message)
	}
	return string(b)
}
