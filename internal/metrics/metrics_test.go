package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/items/:id", "200"))
	RecordHTTPRequest("GET", "/v1/items/:id", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/items/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordHTTPRequest_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	RecordHTTPRequest("GET", "", 404, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecordRecommenderCall(t *testing.T) {
	before := testutil.ToFloat64(RecommenderCalls.WithLabelValues("query", "error"))
	RecordRecommenderCall("query", errors.New("boom"), time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(RecommenderCalls.WithLabelValues("query", "error")))
}
