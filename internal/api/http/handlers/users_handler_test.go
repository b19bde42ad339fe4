package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
)

type memoryUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*domain.User)}
}

func (m *memoryUserRepo) Create(_ context.Context, user *domain.User, roleIDs []string) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	for _, roleID := range roleIDs {
		if roleID == "role-admin" {
			user.Roles = append(user.Roles, domain.Role{ID: roleID, Name: domain.RoleAdmin})
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memoryUserRepo) UpdatePartial(_ context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = *patch.PhoneNumber
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (m *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUserRepo) List(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	return users, nil
}

func (m *memoryUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

type memoryRoleRepo struct {
	roles map[domain.RoleName]domain.Role
}

func (m *memoryRoleRepo) GetByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	role, ok := m.roles[name]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &role, nil
}

func (m *memoryRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

func buildTestApp(t *testing.T, seedAdminRole bool) *fiber.App {
	t.Helper()

	roles := map[domain.RoleName]domain.Role{}
	if seedAdminRole {
		roles[domain.RoleAdmin] = domain.Role{ID: "role-admin", Name: domain.RoleAdmin}
	}

	userService := service.NewUserService(service.UserDependencies{
		UserRepo: newMemoryUserRepo(),
		RoleRepo: &memoryRoleRepo{roles: roles},
	}, 4)

	app := fiber.New()
	httpapi.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httpapi.RegisterRoutes(app, httpapi.RouteConfig{
		Health: handlers.NewHealthHandler("account-service-test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Users:  handlers.NewUsersHandler(userService),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func createPayload() map[string]any {
	return map[string]any{
		"first_name":   "John",
		"last_name":    "Doe",
		"email":        "john@example.com",
		"password":     "secret123",
		"phone_number": "+2349015577897",
	}
}

func TestCreateUser_ResponseOmitsPassword(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPost, "/users", createPayload())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password", "responses must not expose password material")
	assert.NotContains(t, string(raw), "secret123")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	data, ok := decoded["data"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "john@example.com", data["email"])
}

func TestCreateUser_InvalidPayload(t *testing.T) {
	app := buildTestApp(t, true)

	payload := createPayload()
	payload["email"] = "not-an-email"
	delete(payload, "first_name")

	resp := doJSON(t, app, http.MethodPost, "/users", payload)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
}

func TestCreateUser_DuplicateEmailConflict(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPost, "/users", createPayload())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/users", createPayload())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ALREADY_EXISTS", errBody["code"])
}

func TestCreateAdmin_AttachesAdminRole(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPost, "/users/admin", createPayload())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["roles"], "ADMIN")
}

func TestCreateAdmin_MissingRoleSeed(t *testing.T) {
	app := buildTestApp(t, false)

	resp := doJSON(t, app, http.MethodPost, "/users/admin", createPayload())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}

func TestGetUser_NotFound(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodGet, "/users/missing", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUsers(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPost, "/users", createPayload())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/users", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestUpdateUser_PartialPatch(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPost, "/users", createPayload())
	created := decodeBody(t, resp)
	resp.Body.Close()
	id := created["data"].(map[string]any)["id"].(string)

	resp = doJSON(t, app, http.MethodPatch, "/users/"+id, map[string]any{"first_name": "Johnny"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Johnny", data["first_name"])
	assert.Equal(t, "Doe", data["last_name"])
}

func TestUpdateUser_InvalidEmail(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPatch, "/users/any", map[string]any{"email": "nope"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteUser_ThenNotFound(t *testing.T) {
	app := buildTestApp(t, true)

	resp := doJSON(t, app, http.MethodPost, "/users", createPayload())
	created := decodeBody(t, resp)
	resp.Body.Close()
	id := created["data"].(map[string]any)["id"].(string)

	resp = doJSON(t, app, http.MethodDelete, "/users/"+id, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/users/"+id, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
