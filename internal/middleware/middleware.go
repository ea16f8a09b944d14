package middleware

import (
	"net/http"
	"strconv"

	"github.com/huddleapp/huddle/internal/metrics"
	"github.com/huddleapp/huddle/pkg/logging"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logging.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var mwLogger = logging.NewLogger("middleware")

// Wrap runs trace injection, bearer auth and per-IP rate limiting in front
// of a handler, and records request metrics on the way out.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = mwLogger
	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	return rateLimiter(re)
}
