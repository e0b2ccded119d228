package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brokerdesk-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name        string
		requestID   string
		traceID     string
		keepRequest bool
		keepTrace   bool
	}{
		{"minted", "", "", false, false},
		{"caller_ids", "req-1", "trace-1", true, true},
		{"oversized", strings.Repeat("x", maxCorrelationIDLen+1), "trace-2", false, true},
		{"whitespace", "bad id", "", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/x", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.requestID != "" {
				req.Header.Set(headerRequestID, tc.requestID)
			}
			if tc.traceID != "" {
				req.Header.Set(headerTraceID, tc.traceID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if seen == nil || seen.RequestID == "" || seen.TraceID == "" {
				t.Fatalf("trace data not attached: %+v", seen)
			}
			if got := rec.Header().Get(headerRequestID); got != seen.RequestID {
				t.Fatalf("echoed request id=%q want %q", got, seen.RequestID)
			}
			if (seen.RequestID == tc.requestID) != tc.keepRequest {
				t.Fatalf("request id=%q caller=%q keep=%v", seen.RequestID, tc.requestID, tc.keepRequest)
			}
			if (seen.TraceID == tc.traceID) != tc.keepTrace {
				t.Fatalf("trace id=%q caller=%q keep=%v", seen.TraceID, tc.traceID, tc.keepTrace)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		name        string
		timeout     time.Duration
		hasDeadline bool
	}{
		{"bounded", 50 * time.Millisecond, true},
		{"disabled", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var ctx context.Context
			r := gin.New()
			r.Use(RequestTimeout(tc.timeout))
			r.GET("/x", func(c *gin.Context) {
				ctx = c.Request.Context()
				c.Status(http.StatusNoContent)
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
			if _, ok := ctx.Deadline(); ok != tc.hasDeadline {
				t.Fatalf("deadline present=%v want %v", ok, tc.hasDeadline)
			}
		})
	}
}
