package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/teamboard/internal/auth"
	"github.com/mesh-intelligence/teamboard/internal/engine"
	"github.com/mesh-intelligence/teamboard/internal/metrics"
	"github.com/mesh-intelligence/teamboard/internal/sqlite"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const testPassword = "Str0ng!pass"

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	a, err := auth.New(b, auth.Options{Secret: "test-secret", Cost: bcrypt.MinCost})
	require.NoError(t, err)
	e := engine.New(b, engine.Options{Hooks: m, Authorizer: auth.Policy{}})
	return NewRouter(RouterConfig{Engine: e, Auth: a, Metrics: m, Gatherer: reg})
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorEnvelope](t, w).Error.Code
}

// account signs a user up, logs in, and returns the token and user id.
func account(t *testing.T, r http.Handler, name string) (string, string) {
	t.Helper()
	email := name + "@example.com"
	w := do(t, r, http.MethodPost, "/api/user/signup", "", gin.H{"username": name, "email": email, "password": testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/api/user/login", "", gin.H{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[loginResponse](t, w)
	return res.Token, res.User.UserID
}

func createProject(t *testing.T, r http.Handler, token string) *types.Project {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/project", token, gin.H{"title": "Apollo", "description": "moon"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*types.Project](t, w)
}

func TestHealthcheck(t *testing.T) {
	r := setupRouter(t)
	w := do(t, r, http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestSignupAndLogin(t *testing.T) {
	r := setupRouter(t)
	body := gin.H{"username": "ada", "email": "ada@example.com", "password": testPassword}

	w := do(t, r, http.MethodPost, "/api/user/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = do(t, r, http.MethodPost, "/api/user/signup", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, types.KindConflict, errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/user/signup", "", gin.H{"username": "x", "email": "bad", "password": testPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/user/login", "", gin.H{"email": "ada@example.com", "password": "Wr0ng!pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, types.KindUnauthorized, errorCode(t, w))

	w = do(t, r, http.MethodPost, "/api/user/login", "", gin.H{"email": "ada@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[loginResponse](t, w)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(auth.DefaultTokenTTL.Seconds()), res.ExpiresIn)

	w = do(t, r, http.MethodPost, "/api/user/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupRouter(t)
	w := do(t, r, http.MethodGet, "/api/user/myprojects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, types.KindUnauthorized, errorCode(t, w))

	w = do(t, r, http.MethodGet, "/api/user/myprojects", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectMembership(t *testing.T) {
	r := setupRouter(t)
	adminTok, adminID := account(t, r, "admin")
	memberTok, memberID := account(t, r, "member")
	strangerTok, _ := account(t, r, "stranger")
	p := createProject(t, r, adminTok)
	base := "/api/project/" + p.ProjectID

	w := do(t, r, http.MethodGet, base, strangerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/project/join", memberTok, gin.H{"code": p.Code})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPost, "/api/project/join", memberTok, gin.H{"code": p.Code})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, base+"/team", memberTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	team := decode[[]engine.UserSummary](t, w)
	require.Len(t, team, 2)
	assert.Equal(t, adminID, team[0].UserID)

	w = do(t, r, http.MethodGet, base+"/code", memberTok, nil)
	assert.Equal(t, p.Code, decode[map[string]string](t, w)["code"])

	w = do(t, r, http.MethodPut, base+"/status", memberTok, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodPut, base+"/status", adminTok, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.ProjectInProgress, decode[*types.Project](t, w).Status)

	w = do(t, r, http.MethodGet, "/api/user/otherprojects", memberTok, nil)
	require.Len(t, decode[[]*types.Project](t, w), 1)

	w = do(t, r, http.MethodDelete, base+"/leave", adminTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodDelete, base+"/team/"+memberID, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, base, memberTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodDelete, base, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, base, adminTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, types.KindNotFound, errorCode(t, w))
}

func TestFeatureCascadeOverHTTP(t *testing.T) {
	r := setupRouter(t)
	adminTok, _ := account(t, r, "admin")
	workerTok, workerID := account(t, r, "worker")
	p := createProject(t, r, adminTok)
	base := "/api/project/" + p.ProjectID
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/project/join", workerTok, gin.H{"code": p.Code}).Code)

	w := do(t, r, http.MethodPost, base+"/features", adminTok, gin.H{"name": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	a := decode[*types.Feature](t, w)
	w = do(t, r, http.MethodPost, base+"/features", adminTok, gin.H{"name": "B", "parent_feature_id": a.FeatureID})
	require.Equal(t, http.StatusCreated, w.Code)
	b := decode[*types.Feature](t, w)

	w = do(t, r, http.MethodPost, base+"/tasks", adminTok, gin.H{"title": "T1", "feature_id": b.FeatureID})
	require.Equal(t, http.StatusCreated, w.Code)
	t1 := decode[*types.Task](t, w)

	w = do(t, r, http.MethodPatch, base+"/tasks/"+t1.TaskID+"/assign", adminTok, gin.H{"user_id": workerID})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPatch, base+"/tasks/"+t1.TaskID+"/status", adminTok, gin.H{"status": "in-progress"})
	assert.Equal(t, http.StatusForbidden, w.Code, "only the assignee accepts")
	w = do(t, r, http.MethodPatch, base+"/tasks/"+t1.TaskID+"/status", workerTok, gin.H{"status": "in-progress"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, base+"/features/"+a.FeatureID+"/subtree", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]*types.Feature](t, w), 2)

	w = do(t, r, http.MethodDelete, base+"/features/"+a.FeatureID, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.DeleteResult{FeaturesRemoved: 2, TasksRemoved: 1}, decode[engine.DeleteResult](t, w))

	w = do(t, r, http.MethodGet, "/api/user/tasks", workerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]*types.Task](t, w))
}

func TestAssignFeatureOverHTTP(t *testing.T) {
	r := setupRouter(t)
	adminTok, adminID := account(t, r, "admin")
	p := createProject(t, r, adminTok)
	base := "/api/project/" + p.ProjectID

	w := do(t, r, http.MethodPost, base+"/features", adminTok, gin.H{"name": "F"})
	f := decode[*types.Feature](t, w)
	w = do(t, r, http.MethodPost, base+"/tasks", adminTok, gin.H{"title": "T", "feature_id": f.FeatureID})
	task := decode[*types.Task](t, w)

	w = do(t, r, http.MethodPost, base+"/features/"+f.FeatureID+"/assign", adminTok, gin.H{"user_id": adminID})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[engine.AssignResult](t, w)
	assert.Equal(t, 1, res.TasksUpdated)

	w = do(t, r, http.MethodGet, "/api/user/tasks", adminTok, nil)
	tasks := decode[[]*types.Task](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.TaskID, tasks[0].TaskID)
	assert.Equal(t, types.TaskAssigned, tasks[0].Status)
}

func TestPatchNullSemantics(t *testing.T) {
	r := setupRouter(t)
	adminTok, adminID := account(t, r, "admin")
	p := createProject(t, r, adminTok)
	base := "/api/project/" + p.ProjectID

	parent := decode[*types.Feature](t, do(t, r, http.MethodPost, base+"/features", adminTok, gin.H{"name": "parent"}))
	child := decode[*types.Feature](t, do(t, r, http.MethodPost, base+"/features", adminTok, gin.H{"name": "child", "parent_feature_id": parent.FeatureID}))

	w := do(t, r, http.MethodPut, base+"/features/"+child.FeatureID, adminTok, `{"name":"renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[*types.Feature](t, w)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, parent.FeatureID, got.ParentFeatureID, "absent parent is unchanged")

	w = do(t, r, http.MethodPut, base+"/features/"+child.FeatureID, adminTok, `{"parent_feature_id":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[*types.Feature](t, w).IsRoot(), "null parent moves to root")

	w = do(t, r, http.MethodPut, base+"/features/"+parent.FeatureID, adminTok, `{"parent_feature_id":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	task := decode[*types.Task](t, do(t, r, http.MethodPost, base+"/tasks", adminTok, gin.H{"title": "T"}))
	w = do(t, r, http.MethodPut, base+"/tasks/"+task.TaskID, adminTok, gin.H{"assigned_to": adminID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.TaskAssigned, decode[*types.Task](t, w).Status)

	w = do(t, r, http.MethodPut, base+"/tasks/"+task.TaskID, adminTok, `{"assigned_to":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := decode[*types.Task](t, w)
	assert.Empty(t, cleared.AssignedTo)
	assert.Equal(t, types.TaskTodo, cleared.Status)
}

func TestForeignEntitiesAreNotFound(t *testing.T) {
	r := setupRouter(t)
	tok, _ := account(t, r, "admin")
	p1 := createProject(t, r, tok)
	p2 := createProject(t, r, tok)

	f := decode[*types.Feature](t, do(t, r, http.MethodPost, "/api/project/"+p1.ProjectID+"/features", tok, gin.H{"name": "F"}))
	task := decode[*types.Task](t, do(t, r, http.MethodPost, "/api/project/"+p1.ProjectID+"/tasks", tok, gin.H{"title": "T"}))

	w := do(t, r, http.MethodDelete, "/api/project/"+p2.ProjectID+"/features/"+f.FeatureID, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodDelete, "/api/project/"+p2.ProjectID+"/tasks/"+task.TaskID, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/project/"+p1.ProjectID+"/tasks/"+task.TaskID, tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := setupRouter(t)
	tok, _ := account(t, r, "admin")
	createProject(t, r, tok)

	w := do(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "teamboard_http_requests_total")
	assert.Contains(t, body, `teamboard_engine_operations_total{op="createProject",status="success"} 1`)
}
