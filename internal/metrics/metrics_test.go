package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAdapterCall(t *testing.T) {
	before := testutil.ToFloat64(adapterCallsTotal.WithLabelValues("remote", "create_item", "error"))

	ObserveAdapterCall("remote", "create_item", time.Now(), errors.New("boom"))
	ObserveAdapterCall("remote", "create_item", time.Now(), nil)

	assert.Equal(t, before+1, testutil.ToFloat64(adapterCallsTotal.WithLabelValues("remote", "create_item", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(adapterCallsTotal.WithLabelValues("remote", "create_item", "ok")), 1.0)
}

func TestObserveLoadAndReorder(t *testing.T) {
	ObserveLoad("local", "fallback")
	ObserveReorderPersistFailure("local")

	assert.GreaterOrEqual(t, testutil.ToFloat64(loadsTotal.WithLabelValues("local", "fallback")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(reorderPersistFailuresTotal.WithLabelValues("local")), 1.0)
}
