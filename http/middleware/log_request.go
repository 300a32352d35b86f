package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/xy-planning-network/trailhead/logger"
)

// LogMaskVal replaces the values of sensitive query parameters in logs.
const LogMaskVal = "xxxxxxx"

var maskedParams = []string{"password", "token"}

// A LogRequestRecord describes a request and the response it received.
type LogRequestRecord struct {
	BodySize       int64         `json:"bodySize"`
	Duration       time.Duration `json:"duration"`
	Host           string        `json:"host"`
	ID             string        `json:"id"`
	IPAddr         string        `json:"ipAddr"`
	Method         string        `json:"method"`
	Path           string        `json:"path"`
	Protocol       string        `json:"protocol"`
	Referrer       string        `json:"referrer"`
	ReqContentType string        `json:"reqContentType"`
	Scheme         string        `json:"scheme"`
	Status         int           `json:"status"`
	URI            string        `json:"uri"`
	UserAgent      string        `json:"userAgent"`
}

// LogRequest logs a LogRequestRecord for every request
// using the enclosed implementation of logger.Logger.
//
// LogRequest masks the values for the following query parameters:
// - password
// - token
//
// if logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(h, w, r)

			rec := newLogRequestRecord(r)
			rec.BodySize = m.Written
			rec.Duration = m.Duration
			rec.Status = m.Code

			ls.Info(
				fmt.Sprintf("%s %s %d", rec.Method, rec.URI, rec.Status),
				&logger.LogContext{Data: map[string]any{"request": rec}},
			)
		})
	}
}

func newLogRequestRecord(r *http.Request) LogRequestRecord {
	uri := r.URL.Path
	q := r.URL.Query()
	for _, param := range maskedParams {
		if q.Has(param) {
			q.Set(param, LogMaskVal)
		}
	}

	if query := q.Encode(); query != "" {
		uri += "?" + query
	}

	return LogRequestRecord{
		Host:           r.Host,
		ID:             RequestIDFrom(r),
		IPAddr:         IPAddressFrom(r),
		Method:         r.Method,
		Path:           r.URL.Path,
		Protocol:       r.Proto,
		Referrer:       r.Referer(),
		ReqContentType: r.Header.Get("Content-Type"),
		Scheme:         r.URL.Scheme,
		URI:            uri,
		UserAgent:      r.UserAgent(),
	}
}
