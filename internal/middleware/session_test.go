package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	handler, _, err := Session(SessionConfig{
		Secret:   "test-secret",
		RedisURL: "redis://" + mr.Addr(),
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(handler)
	app.Get("/whoami", RequireAuth(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": ActorUserID(c).String()})
	})
	return app, mr
}

func storeSession(t *testing.T, mr *miniredis.Miniredis, sid string, userID uuid.UUID) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"user": map[string]interface{}{
			"user_id": userID.String(),
			"email":   "trader@example.com",
		},
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set(SessionRedisPrefix+sid, string(payload)))
}

func TestSession_LoadsUser(t *testing.T) {
	app, mr := newSessionApp(t)
	userID := uuid.New()
	sid := NewSessionID()
	storeSession(t, mr, sid, userID)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, userID.String(), body["user_id"])
}

func TestSession_MissingCookieIsUnauthorized(t *testing.T) {
	app, _ := newSessionApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSession_UnknownSessionIsUnauthorized(t *testing.T) {
	app, _ := newSessionApp(t)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: NewSessionID()})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSession_RefreshesTTL(t *testing.T) {
	app, mr := newSessionApp(t)
	userID := uuid.New()
	sid := NewSessionID()
	storeSession(t, mr, sid, userID)
	mr.SetTTL(SessionRedisPrefix+sid, time.Minute)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, sessionMaxAge, mr.TTL(SessionRedisPrefix+sid))
}

func TestActorUserID_MalformedPayload(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": "not-a-uuid"})
		assert.Equal(t, uuid.Nil, ActorUserID(c))
		c.Locals("user", nil)
		assert.Equal(t, uuid.Nil, ActorUserID(c))
		return c.SendStatus(fiber.StatusOK)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
}
