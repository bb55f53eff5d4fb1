package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/member"
	"condo-ballots/internal/domain/tally"
	"condo-ballots/internal/domain/vote"
	"condo-ballots/internal/notify"
	"condo-ballots/internal/platform/database"
	jwtpkg "condo-ballots/internal/platform/jwt"
	"condo-ballots/internal/repository/sqlite"
	"condo-ballots/internal/worker"
)

const tenantID = "tenant-1"

type testEnv struct {
	server *httptest.Server
	jwt    *jwtpkg.Manager
	events chan notify.Event
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewSQLite(database.MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	members := sqlite.NewMemberRepo(db)
	for _, m := range []member.Member{
		{ID: "admin", TenantID: tenantID, Name: "Board Admin", Email: "board@example.com", Role: member.RoleAdmin, IsActive: true},
		{ID: "m1", TenantID: tenantID, Name: "Ana", Email: "ana@example.com", IsActive: true},
		{ID: "m2", TenantID: tenantID, Name: "Ben", Email: "ben@example.com", IsActive: true},
		{ID: "m3", TenantID: tenantID, Name: "Cy", Email: "cy@example.com", IsActive: true},
	} {
		require.NoError(t, members.Save(context.Background(), m))
	}

	ballots := sqlite.NewBallotRepo(db)
	votes := sqlite.NewVoteRepo(db)
	directory := member.NewDirectory(members)
	events := make(chan notify.Event, 10)

	svc := Services{
		Ballots: ballot.NewService(ballots, directory, worker.NewQueue(events), "https://condo.example", nil),
		Votes:   vote.NewService(ballots, votes, nil),
		Tally:   tally.NewEvaluator(ballots, votes, directory),
		Members: directory,
	}
	jwtMgr := jwtpkg.NewManager("secret", "test-issuer")
	server := httptest.NewServer(NewRouter(svc, jwtMgr, sqlDB, Limits{VoteRate: rate.Inf}))
	t.Cleanup(func() {
		server.Close()
		_ = sqlDB.Close()
	})
	return &testEnv{server: server, jwt: jwtMgr, events: events}
}

func (e *testEnv) token(t *testing.T, memberID, role string) string {
	t.Helper()
	tok, err := e.jwt.Generate(memberID, tenantID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, resp *http.Response) string {
	return decode[map[string]string](t, resp)["error"]
}

func createBallot(t *testing.T, e *testEnv, admin string, quorum *int) ballotResponse {
	t.Helper()
	open := time.Now().UTC().Truncate(time.Second)
	resp := e.do(t, http.MethodPost, "/api/v1/ballots", admin, createBallotRequest{
		Title:        "Install bike racks",
		QuestionType: string(ballot.YesNo),
		OpenAt:       open,
		CloseAt:      open.Add(24 * time.Hour),
		QuorumPct:    quorum,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[ballotResponse](t, resp)
}

func TestHealthAndReady(t *testing.T) {
	e := setupServer(t)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/ready", "", nil).StatusCode)
}

func TestAuthRequired(t *testing.T) {
	e := setupServer(t)
	resp := e.do(t, http.MethodGet, "/api/v1/ballots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	foreign, err := jwtpkg.NewManager("other-secret", "test-issuer").Generate("m1", tenantID, member.RoleUser, time.Hour)
	require.NoError(t, err)
	resp = e.do(t, http.MethodGet, "/api/v1/ballots", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMembersCannotManageBallots(t *testing.T) {
	e := setupServer(t)
	user := e.token(t, "m1", member.RoleUser)

	resp := e.do(t, http.MethodPost, "/api/v1/ballots", user, createBallotRequest{Title: "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	b := createBallot(t, e, e.token(t, "admin", member.RoleAdmin), nil)
	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/open", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID, user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "drafts are hidden from members")
}

func TestBallotLifecycleEndToEnd(t *testing.T) {
	e := setupServer(t)
	admin := e.token(t, "admin", member.RoleAdmin)
	ana := e.token(t, "m1", member.RoleUser)
	ben := e.token(t, "m2", member.RoleUser)

	quorum := 50
	b := createBallot(t, e, admin, &quorum)
	assert.Equal(t, ballot.StatusDraft, b.Status)
	require.Len(t, b.Options, 2)
	assert.Equal(t, ballot.OptionYes, b.Options[0].ID)

	resp := e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/votes", ana, castVoteRequest{SelectedOptions: []string{"yes"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/open", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	select {
	case ev := <-e.events:
		assert.Equal(t, notify.TypeBallotOpen, ev.Type)
		assert.Equal(t, "https://condo.example/ballots/"+b.ID, ev.TargetURL)
	default:
		t.Fatal("expected ballot_open event")
	}

	resp = e.do(t, http.MethodPatch, "/api/v1/ballots/"+b.ID, admin, map[string]string{"title": "late edit"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_state", errorCode(t, resp))

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/votes", ana, castVoteRequest{SelectedOptions: []string{"maybe"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/votes", ana, castVoteRequest{SelectedOptions: []string{"yes"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/votes", ana, castVoteRequest{SelectedOptions: []string{"no"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_voted", errorCode(t, resp))

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/my-vote", ana, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"yes"}, decode[vote.Vote](t, resp).SelectedOptions)

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/my-vote", ben, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/results", ana, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "results_withheld", errorCode(t, resp))

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/results", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	live := decode[tally.Result](t, resp)
	assert.EqualValues(t, 1, live.TotalVotes)
	assert.EqualValues(t, 4, live.EligibleVoters)

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/export.csv", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/votes", ben, castVoteRequest{SelectedOptions: []string{"no"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/close", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/votes", e.token(t, "m3", member.RoleUser), castVoteRequest{SelectedOptions: []string{"yes"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_state", errorCode(t, resp))

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/export.csv", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Equal(t, "2", resp.Header.Get("X-Total-Votes"))
	assert.Equal(t, "true", resp.Header.Get("X-Quorum-Met"))
	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"name", "email", "selected_options", "voted_at"}, records[0])
	assert.Equal(t, "Ana", records[1][0])
	assert.Equal(t, "Yes", records[1][2])

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/publish", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+b.ID+"/results", ana, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	final := decode[tally.Result](t, resp)
	assert.EqualValues(t, 2, final.TotalVotes)
	assert.EqualValues(t, 50, final.ParticipationPct)
	require.NotNil(t, final.QuorumMet)
	assert.True(t, *final.QuorumMet)
	assert.EqualValues(t, 1, final.PerOption["yes"])
	assert.EqualValues(t, 1, final.PerOption["no"])

	resp = e.do(t, http.MethodPost, "/api/v1/ballots/"+b.ID+"/open", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteOnlyDrafts(t *testing.T) {
	e := setupServer(t)
	admin := e.token(t, "admin", member.RoleAdmin)

	draft := createBallot(t, e, admin, nil)
	resp := e.do(t, http.MethodDelete, "/api/v1/ballots/"+draft.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, http.MethodGet, "/api/v1/ballots/"+draft.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	opened := createBallot(t, e, admin, nil)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/v1/ballots/"+opened.ID+"/open", admin, nil).StatusCode)
	resp = e.do(t, http.MethodDelete, "/api/v1/ballots/"+opened.ID, admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateRejectsInvalidBallot(t *testing.T) {
	e := setupServer(t)
	admin := e.token(t, "admin", member.RoleAdmin)
	open := time.Now().UTC()

	resp := e.do(t, http.MethodPost, "/api/v1/ballots", admin, createBallotRequest{
		Title:        "Choose paint",
		QuestionType: string(ballot.SingleChoice),
		Options:      []optionRequest{{Label: "White"}, {Label: " "}},
		OpenAt:       open,
		CloseAt:      open.Add(time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", errorCode(t, resp))
}

func TestVoteRateLimitPerMember(t *testing.T) {
	jwtMgr := jwtpkg.NewManager("secret", "test-issuer")
	srv := httptest.NewServer(NewRouter(Services{}, jwtMgr, nil, Limits{VoteRate: rate.Every(time.Hour), VoteBurst: 1}))
	defer srv.Close()

	// A malformed body is rejected before any service is reached.
	post := func(memberID string) int {
		tok, err := jwtMgr.Generate(memberID, tenantID, member.RoleUser, time.Hour)
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/ballots/b1/votes", strings.NewReader("{"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusBadRequest, post("m1"))
	assert.Equal(t, http.StatusTooManyRequests, post("m1"))
	assert.Equal(t, http.StatusBadRequest, post("m2"))
}
