package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/service"
)

// AdminHandler serves connection-profile and user management. Connection
// listing and schema introspection are readable by any authenticated user
// (they are needed to run a query at all); every mutation is gated.
type AdminHandler struct {
	connRepo core.ConnectionRepository
	userRepo core.UserRepository
	executor *service.QueryExecutor
	authSvc  *service.AuthService
	gate     *service.PermissionGate
	cipher   *service.SecretCipher
}

func NewAdminHandler(connRepo core.ConnectionRepository, userRepo core.UserRepository,
	executor *service.QueryExecutor, authSvc *service.AuthService,
	gate *service.PermissionGate, cipher *service.SecretCipher) *AdminHandler {
	return &AdminHandler{
		connRepo: connRepo,
		userRepo: userRepo,
		executor: executor,
		authSvc:  authSvc,
		gate:     gate,
		cipher:   cipher,
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/connections", h.ListConnections)
	r.Get("/connections/{id}/schema", h.GetSchema)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAction(service.ActionManageConnections))
		r.Post("/connections", h.CreateConnection)
		r.Put("/connections/{id}", h.UpdateConnection)
		r.Delete("/connections/{id}", h.DeleteConnection)
		r.Post("/connections/{id}/test", h.TestConnection)
		r.Post("/connections/{id}/activate", h.ActivateConnection)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAction(service.ActionCreateUser))
		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)
	})
}

func (h *AdminHandler) requireAction(action service.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if !h.gate.Authorize(user.Role, action) {
				writeError(w, core.ErrInsufficientPermissions(user.Role, string(action)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Connection profiles ---

type connectionRequest struct {
	Name     string `json:"name"`
	Engine   string `json:"engine"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
	UseTLS   bool   `json:"use_tls"`
}

func (h *AdminHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.connRepo.GetAll()
	if err != nil {
		writeError(w, err)
		return
	}
	if profiles == nil {
		profiles = []core.ConnectionProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": profiles})
}

func (h *AdminHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if !core.ValidEngine(req.Engine) {
		http.Error(w, "engine must be mysql or postgresql", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Host == "" {
		http.Error(w, "name and host are required", http.StatusBadRequest)
		return
	}

	secretEnc, err := h.cipher.Encrypt(req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}

	profile := &core.ConnectionProfile{
		Name:      req.Name,
		Engine:    core.EngineKind(req.Engine),
		Host:      req.Host,
		Port:      req.Port,
		Database:  req.Database,
		Username:  req.Username,
		SecretEnc: secretEnc,
		UseTLS:    req.UseTLS,
	}
	if err := h.connRepo.Create(profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *AdminHandler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profileFromURL(w, r)
	if !ok {
		return
	}

	var req connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.Engine != "" && !core.ValidEngine(req.Engine) {
		http.Error(w, "engine must be mysql or postgresql", http.StatusBadRequest)
		return
	}

	if req.Name != "" {
		profile.Name = req.Name
	}
	if req.Engine != "" {
		profile.Engine = core.EngineKind(req.Engine)
	}
	if req.Host != "" {
		profile.Host = req.Host
	}
	if req.Port != 0 {
		profile.Port = req.Port
	}
	if req.Database != "" {
		profile.Database = req.Database
	}
	if req.Username != "" {
		profile.Username = req.Username
	}
	profile.UseTLS = req.UseTLS

	// Only re-encrypt when a new secret was supplied
	if req.Secret != "" {
		secretEnc, err := h.cipher.Encrypt(req.Secret)
		if err != nil {
			writeError(w, err)
			return
		}
		profile.SecretEnc = secretEnc
	}

	if err := h.connRepo.Update(profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AdminHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profileFromURL(w, r)
	if !ok {
		return
	}
	if err := h.connRepo.Delete(profile.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profileFromURL(w, r)
	if !ok {
		return
	}
	ok = h.executor.TestConnection(r.Context(), profile)
	writeJSON(w, http.StatusOK, map[string]any{"success": ok})
}

func (h *AdminHandler) ActivateConnection(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profileFromURL(w, r)
	if !ok {
		return
	}
	if err := h.connRepo.Activate(profile.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profileFromURL(w, r)
	if !ok {
		return
	}
	tables, err := h.executor.GetSchema(r.Context(), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	if tables == nil {
		tables = []core.SchemaTable{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (h *AdminHandler) profileFromURL(w http.ResponseWriter, r *http.Request) (*core.ConnectionProfile, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}
	profile, err := h.connRepo.GetByID(id)
	if err != nil {
		writeError(w, core.ErrConnectionNotFound)
		return nil, false
	}
	return profile, true
}

// --- User accounts ---

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAll()
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []core.UserAccount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}
	if !core.ValidRole(req.Role) {
		http.Error(w, "role must be admin, developer or business_user", http.StatusBadRequest)
		return
	}

	hash, err := h.authSvc.HashSecret(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userRepo.Create(req.Username, hash, core.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	user, err := h.userRepo.GetByID(id)
	if err == sql.ErrNoRows {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
		IsActive *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Role != "" {
		if !core.ValidRole(req.Role) {
			http.Error(w, "role must be admin, developer or business_user", http.StatusBadRequest)
			return
		}
		user.Role = core.Role(req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	// Empty password means "leave the hash alone"; the repo skips the
	// column when the hash field is empty.
	user.PasswordHash = ""
	if req.Password != "" {
		hash, err := h.authSvc.HashSecret(req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := h.userRepo.Update(user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.userRepo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
