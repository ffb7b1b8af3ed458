package pureservice_sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"

	"github.com/vestfoldfylke/pureservice-sync/internal/config"
)

func withoutSettings(t *testing.T) {
	t.Setenv("PURESERVICE_SYNC_CONFIG", "")
	t.Setenv("PURESERVICE_BASE_URL", "")
	t.Setenv("Pureservice_BaseUrl", "")
	t.Setenv("KSM_CONFIG_BASE64", "")
}

func TestSynchronizePubSub_MissingSettings(t *testing.T) {
	withoutSettings(t)

	var err = synchronizePubSub(context.Background(), event.New())

	assert.ErrorIs(t, err, config.ErrMissingSetting)
	assert.Nil(t, instance)
}

func TestSynchronizeHttp_MissingSettings(t *testing.T) {
	withoutSettings(t)

	var rec = httptest.NewRecorder()
	synchronizeHttp(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "pureservice.base_url")
}
