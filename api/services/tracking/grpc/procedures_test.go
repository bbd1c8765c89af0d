package grpcserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/database/dbtest"
	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
	stripeapp "github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
	"github.com/tbeaudouin05/quitcoach/api/services/tracking/app"
	trackingdb "github.com/tbeaudouin05/quitcoach/api/services/tracking/db"
	grpcserver "github.com/tbeaudouin05/quitcoach/api/services/tracking/grpc"
)

var now = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

type env struct {
	ts       *httptest.Server
	tokens   map[string]string
	attempts map[string]string
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return now }
	db := dbtest.Open(t)

	profiles := accountdb.NewStore(db, clock)
	coaching := coachingdb.NewStore(db, clock)
	trialEnd := entitlement.CalculateTrialEndDate(now.Add(-24 * time.Hour))
	expiredEnd := now.Add(-time.Hour)
	attempts := map[string]string{}
	for id, end := range map[string]*time.Time{"active": &trialEnd, "other": &trialEnd, "expired": &expiredEnd} {
		_, err := profiles.Create(ctx, accountdb.Profile{
			ID: id, Email: id + "@example.com", SubscriptionStatus: entitlement.StatusTrialing, TrialEndDate: end,
		})
		require.NoError(t, err)
		q, err := coaching.CreateQuitAttempt(ctx, coachingdb.QuitAttempt{
			ID: uuid.NewString(), UserID: id, QuitDate: now.Add(-48 * time.Hour), ProductType: "cigarettes", DailyUsage: 12,
		})
		require.NoError(t, err)
		attempts[id] = q.ID
	}

	issuer := auth.NewIssuer("secret", time.Hour, clock)
	billing := stripeapp.NewService(profiles, nil, stripeapp.Settings{Now: clock})
	srv := rpc.NewServer(issuer, billing)
	grpcserver.Register(srv, app.NewService(trackingdb.NewStore(db, clock), app.Settings{Now: clock}))

	mux := runtime.NewServeMux(runtime.WithIncomingHeaderMatcher(rpc.HeaderMatcher))
	require.NoError(t, srv.RegisterGateway(mux))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	tokens := map[string]string{}
	for id := range attempts {
		tok, err := issuer.Issue(id, id+"@example.com")
		require.NoError(t, err)
		tokens[id] = tok
	}
	return env{ts: ts, tokens: tokens, attempts: attempts}
}

type reply struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *rpc.ErrorBody `json:"error"`
}

func (e env) query(t *testing.T, user, path, input string) (int, reply) {
	t.Helper()
	target := e.ts.URL + rpc.PathPrefix + path
	if input != "" {
		target += "?" + url.Values{"input": {input}}.Encode()
	}
	return e.send(t, user, http.MethodGet, target, "")
}

func (e env) mutate(t *testing.T, user, path, input string) (int, reply) {
	t.Helper()
	return e.send(t, user, http.MethodPost, e.ts.URL+rpc.PathPrefix+path, input)
}

func (e env) send(t *testing.T, user, method, target, body string) (int, reply) {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if tok, ok := e.tokens[user]; ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var r reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return resp.StatusCode, r
}

func decode[T any](t *testing.T, r reply) T {
	t.Helper()
	require.NotNil(t, r.Result, "error: %+v", r.Error)
	var v T
	require.NoError(t, json.Unmarshal(r.Result.Data, &v))
	return v
}

func attemptInput(id string) string { return `{"quitAttemptId":"` + id + `"}` }

func TestGate(t *testing.T) {
	e := setup(t)
	code, r := e.query(t, "", "settings.get", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", r.Error.Code)

	for _, path := range []string{"settings.get", "education.getProgress", "notifications.getPending"} {
		code, r := e.query(t, "expired", path, "")
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, "trial_expired", r.Error.Message, path)
	}
}

func TestTriggerLogsFlow(t *testing.T) {
	e := setup(t)
	attempt := e.attempts["active"]

	code, r := e.mutate(t, "active", "triggerLogs.create", `{
		"quitAttemptId": "`+attempt+`",
		"triggerType": "after_meals",
		"intensity": 4,
		"location": "kitchen",
		"copingStrategy": "brushed my teeth right away",
		"wasSuccessful": true
	}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	created := decode[trackingdb.TriggerLog](t, r)
	assert.True(t, created.OccurredAt.Equal(now))

	code, r = e.query(t, "active", "triggerLogs.getRecent", `{"quitAttemptId":"`+attempt+`","limit":5}`)
	require.Equal(t, http.StatusOK, code)
	recent := decode[[]trackingdb.TriggerLog](t, r)
	require.Len(t, recent, 1)
	assert.Equal(t, created.ID, recent[0].ID)

	code, r = e.mutate(t, "active", "triggerLogs.create", `{"quitAttemptId":"`+attempt+`","triggerType":"coffee","intensity":9}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "triggerLogs.create", r.Error.Path)
}

func TestLogs_OtherUsersAttempt(t *testing.T) {
	e := setup(t)
	foreign := e.attempts["other"]

	code, r := e.mutate(t, "active", "progressLogs.create", `{"quitAttemptId":"`+foreign+`","logDate":"2025-03-04"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Quit attempt not found", r.Error.Message)

	for _, path := range []string{"progressLogs.getByAttempt", "triggerLogs.getByAttempt", "triggerLogs.getRecent",
		"slipLogs.getByAttempt", "milestones.getByAttempt"} {
		code, _ := e.query(t, "active", path, attemptInput(foreign))
		assert.Equal(t, http.StatusNotFound, code, path)
	}
}

func TestProgressAndSlipLogs(t *testing.T) {
	e := setup(t)
	attempt := e.attempts["active"]

	code, r := e.mutate(t, "active", "progressLogs.create", `{"quitAttemptId":"`+attempt+`","logDate":"2025-03-04","moodRating":4}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	code, r = e.query(t, "active", "progressLogs.getByAttempt", attemptInput(attempt))
	require.Equal(t, http.StatusOK, code)
	logs := decode[[]trackingdb.ProgressLog](t, r)
	require.Len(t, logs, 1)
	assert.Equal(t, "2025-03-04", logs[0].LogDate)
	assert.Equal(t, 0, logs[0].CravingsCount)

	code, r = e.mutate(t, "active", "slipLogs.create", `{
		"quitAttemptId": "`+attempt+`",
		"occurredAt": "2025-03-03T21:15:00Z",
		"triggerType": "social",
		"circumstances": "bar with coworkers",
		"feelings": "annoyed with myself"
	}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	code, r = e.query(t, "active", "slipLogs.getByAttempt", attemptInput(attempt))
	require.Equal(t, http.StatusOK, code)
	slips := decode[[]trackingdb.SlipLog](t, r)
	require.Len(t, slips, 1)
	assert.Equal(t, "bar with coworkers", slips[0].Circumstances)
}

func TestMilestonesFlow(t *testing.T) {
	e := setup(t)
	attempt := e.attempts["active"]

	code, r := e.mutate(t, "active", "milestones.create", `{"quitAttemptId":"`+attempt+`","milestoneType":"48_hours"}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	m := decode[trackingdb.Milestone](t, r)

	code, r = e.mutate(t, "other", "milestones.markCelebrated", `{"id":"`+m.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Milestone not found", r.Error.Message)

	code, r = e.mutate(t, "active", "milestones.markCelebrated", `{"id":"`+m.ID+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[trackingdb.Milestone](t, r).Celebrated)
}

func TestSettingsFlow(t *testing.T) {
	e := setup(t)

	code, r := e.query(t, "active", "settings.get", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(r.Result.Data))

	code, r = e.mutate(t, "active", "settings.update", `{"theme":"light","cigaretteCost":0.6}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	code, r = e.mutate(t, "active", "settings.update", `{"notificationsEnabled":false}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	got := decode[trackingdb.UserSettings](t, r)
	assert.Equal(t, "light", got.Theme)
	assert.False(t, got.NotificationsEnabled)
	require.NotNil(t, got.CigaretteCost)
	assert.InDelta(t, 0.6, *got.CigaretteCost, 0.001)

	code, r = e.query(t, "other", "settings.get", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(r.Result.Data))

	code, _ = e.mutate(t, "active", "settings.update", `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEducationAndNotifications(t *testing.T) {
	e := setup(t)

	code, r := e.mutate(t, "active", "education.complete", `{"moduleId":"basics","lessonId":"nicotine-101"}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	code, r = e.query(t, "active", "education.getProgress", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]trackingdb.LessonCompletion](t, r), 1)
	code, r = e.query(t, "other", "education.getProgress", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]trackingdb.LessonCompletion](t, r))

	code, r = e.mutate(t, "active", "notifications.schedule", `{
		"notificationType": "evening_reflection",
		"scheduledFor": "2025-03-04T20:00:00Z",
		"title": "Evening check-in",
		"message": "How did today go?"
	}`)
	require.Equal(t, http.StatusOK, code, "%+v", r.Error)
	n := decode[trackingdb.Notification](t, r)

	code, r = e.query(t, "active", "notifications.getPending", "")
	require.Equal(t, http.StatusOK, code)
	pending := decode[[]trackingdb.Notification](t, r)
	require.Len(t, pending, 1)
	assert.Equal(t, n.ID, pending[0].ID)

	code, r = e.mutate(t, "other", "notifications.markSent", `{"id":"`+n.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Notification not found", r.Error.Message)

	code, r = e.mutate(t, "active", "notifications.markSent", `{"id":"`+n.ID+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[trackingdb.Notification](t, r).Sent)

	code, r = e.query(t, "active", "notifications.getPending", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]trackingdb.Notification](t, r))
}
