package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/auth"
	"voice-dashboard/internal/calls"
	"voice-dashboard/internal/knowledgebases"
	"voice-dashboard/internal/pathways"
	"voice-dashboard/internal/provider"
	"voice-dashboard/internal/reporting"
	"voice-dashboard/internal/users"
	"voice-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse input, call internal services, return JSON.
type Handlers struct {
	Auth           *auth.Service
	Users          *users.Service
	Calls          *calls.Service
	Stats          *reporting.Service
	Pathways       *pathways.Service
	KnowledgeBases *knowledgebases.Service
	Provider       provider.Factory

	// Optional; /healthz reports them when set.
	DB    *sql.DB
	Redis *redis.Client

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func currentUser(c *gin.Context) (string, bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		writeError(c, apperr.New(apperr.ErrUnauthenticated, "access token required"))
		return "", false
	}
	return uid, true
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": h.now().UTC()})
}

func (h Handlers) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true
	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err != nil {
			checks["postgres"] = "down"
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// --- Auth ---

func (h Handlers) Register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	res, err := h.Auth.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h Handlers) Login(c *gin.Context) {
	var in auth.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), auth.BearerToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h Handlers) Me(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := h.Users.Profile(c.Request.Context(), uid)
	if err != nil {
		writeResourceError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// --- User ---

func (h Handlers) GetProfile(c *gin.Context) {
	h.Me(c)
}

func (h Handlers) UpdateProfile(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in users.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), uid, in)
	if err != nil {
		writeResourceError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h Handlers) DeleteAccount(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Users.DeleteAccount(c.Request.Context(), uid); err != nil {
		writeResourceError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	f, err := parseListFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.Calls.List(c.Request.Context(), uid, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseListFilter(c *gin.Context) (calls.ListFilter, error) {
	f := calls.ListFilter{Status: calls.Status(c.Query("status"))}
	verr := &apperr.ValidationError{}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Fields = append(verr.Fields, apperr.FieldError{Field: "limit", Message: "must be an integer"})
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Fields = append(verr.Fields, apperr.FieldError{Field: "offset", Message: "must be an integer"})
		}
		f.Offset = n
	}
	if len(verr.Fields) > 0 {
		return calls.ListFilter{}, verr
	}
	return f, nil
}

func (h Handlers) GetCall(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	call, err := h.Calls.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeResourceError(c, err, "call")
		return
	}
	c.JSON(http.StatusOK, gin.H{"call": call})
}

func (h Handlers) CreateCall(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in calls.CreateCall
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	call, err := h.Calls.Create(c.Request.Context(), uid, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"call": call})
}

func (h Handlers) CallStats(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	sum, err := h.Stats.CallsSummary(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) CallTranscript(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	raw, err := h.Calls.Transcript(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeResourceError(c, err, "call")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h Handlers) CallRecording(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	raw, err := h.Calls.Recording(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeResourceError(c, err, "call")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// --- Pathways ---

func (h Handlers) ListPathways(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := h.Pathways.List(c.Request.Context(), uid, pathways.Status(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pathways": out})
}

func (h Handlers) GetPathway(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.Pathways.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeResourceError(c, err, "pathway")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pathway": p})
}

func (h Handlers) CreatePathway(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in pathways.CreatePathway
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	p, err := h.Pathways.Create(c.Request.Context(), uid, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pathway": p})
}

func (h Handlers) UpdatePathway(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in pathways.UpdatePathway
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	p, err := h.Pathways.Update(c.Request.Context(), uid, c.Param("id"), in)
	if err != nil {
		writeResourceError(c, err, "pathway")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pathway": p})
}

func (h Handlers) DeletePathway(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Pathways.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeResourceError(c, err, "pathway")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pathway deleted successfully"})
}

// --- Knowledge bases ---

func (h Handlers) ListKnowledgeBases(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := h.KnowledgeBases.List(c.Request.Context(), uid, knowledgebases.Status(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"knowledgeBases": out})
}

func (h Handlers) GetKnowledgeBase(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	kb, err := h.KnowledgeBases.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeResourceError(c, err, "knowledge base")
		return
	}
	c.JSON(http.StatusOK, gin.H{"knowledgeBase": kb})
}

func (h Handlers) CreateKnowledgeBase(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in knowledgebases.CreateKnowledgeBase
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	kb, err := h.KnowledgeBases.Create(c.Request.Context(), uid, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"knowledgeBase": kb})
}

func (h Handlers) UpdateKnowledgeBase(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in knowledgebases.UpdateKnowledgeBase
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidJSON(c)
		return
	}
	kb, err := h.KnowledgeBases.Update(c.Request.Context(), uid, c.Param("id"), in)
	if err != nil {
		writeResourceError(c, err, "knowledge base")
		return
	}
	c.JSON(http.StatusOK, gin.H{"knowledgeBase": kb})
}

func (h Handlers) DeleteKnowledgeBase(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.KnowledgeBases.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeResourceError(c, err, "knowledge base")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Knowledge base deleted successfully"})
}

// --- Provider passthrough ---

func (h Handlers) providerClient(c *gin.Context) (*provider.Client, bool) {
	uid, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	u, err := h.Users.Profile(c.Request.Context(), uid)
	if err != nil {
		writeResourceError(c, err, "user")
		return nil, false
	}
	// Built per request from the current key; never cached across keys.
	client, err := h.Provider.New(u.ProviderAPIKey)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return client, true
}

func (h Handlers) ListVoices(c *gin.Context) {
	client, ok := h.providerClient(c)
	if !ok {
		return
	}
	raw, err := client.ListVoices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h Handlers) Analytics(c *gin.Context) {
	client, ok := h.providerClient(c)
	if !ok {
		return
	}
	raw, err := client.GetAnalytics(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
