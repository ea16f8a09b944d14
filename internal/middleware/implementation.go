package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/huddleapp/huddle/internal/adapter/utils"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/handlers"
	"github.com/huddleapp/huddle/pkg/logging"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	if re.req == nil {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusBadRequest,
			errorMessage: "request is empty",
		}
		return re
	}

	trace := re.req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(re.req.Context(), config.TraceIDKey, trace)
	re.req.Header.Set("X-Trace-Id", trace)
	re.req = re.req.WithContext(ctx)
	return re
}

func authenticate(re requestResponseStruct) requestResponseStruct {
	if !isValidBearerToken(re.req.Header.Get("Authorization"), re.logger) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			errorMessage: "unauthorized",
		}
	}
	return re
}

func isValidBearerToken(authHeader string, log *logging.Logger) bool {
	if config.NoAuthBypass() {
		log.Warn("auth disabled: no token configured")
		return true
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	provided := strings.TrimPrefix(authHeader, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(config.AuthToken())) == 1
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Warn("rate limit exceeded", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "rate limit exceeded",
		}
	}
	return re
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("rejected request", "httpCode", re.badRequest.httpCode, "error", re.badRequest.errorMessage, "ip", re.req.RemoteAddr)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, "", re.badRequest.errorMessage)
}
