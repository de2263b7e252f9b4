package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ballmatro-service/internal/middleware"
	"ballmatro-service/internal/service"
	"ballmatro-service/internal/service/benchmark"
	"ballmatro-service/internal/service/dataset"
	"ballmatro-service/internal/service/game"
	"ballmatro-service/internal/ws"
	appErr "ballmatro-service/pkg/errors"
	"ballmatro-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/ballmatro/v1")
	{
		v1.GET("/jokers", handler.ListJokers)
		v1.POST("/score", handler.Score)
		v1.POST("/optimize", handler.Optimize)

		datasetGroup := v1.Group("/datasets")
		{
			datasetGroup.GET("/:id", handler.GetDataset)
			datasetGroup.GET("/:id/items", handler.ListDatasetItems)
		}

		benchmarkGroup := v1.Group("/benchmarks")
		{
			benchmarkGroup.POST("", handler.SubmitBenchmark)
			benchmarkGroup.GET("/:id", handler.GetBenchmark)
		}
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired())
		{
			protected.GET("/me", handler.AdminProfile)
			protected.POST("/datasets", handler.AdminGenerateDataset)
			protected.POST("/datasets/:id/reoptimize", handler.AdminReoptimizeDataset)
			protected.POST("/benchmarks/attempt", handler.AdminAttemptBenchmark)
		}
	}

	r.GET("/ws/score", wsHandler.HandleScoreWS)
}

type scoreBody struct {
	Available game.CardList `json:"available"`
	Played    game.CardList `json:"played"`
}

type optimizeBody struct {
	Available game.CardList `json:"available"`
}

type submitBenchmarkBody struct {
	DatasetID string   `json:"datasetId" binding:"required"`
	Split     string   `json:"split"`
	Model     string   `json:"model"`
	Plays     []string `json:"plays"`
}

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type generateDatasetBody struct {
	Name      string  `json:"name"`
	Algorithm string  `json:"algorithm" binding:"required"`
	HandSize  int     `json:"handSize" binding:"required,min=1"`
	N         int     `json:"n"`
	Seed      int64   `json:"seed"`
	JokerRate float64 `json:"jokerRate"`
}

func (b generateDatasetBody) toParams() dataset.GenerateParams {
	return dataset.GenerateParams{
		Name:      b.Name,
		Algorithm: b.Algorithm,
		HandSize:  b.HandSize,
		N:         b.N,
		Seed:      b.Seed,
		JokerRate: b.JokerRate,
	}
}

type attemptBody struct {
	DatasetID string `json:"datasetId" binding:"required"`
	Split     string `json:"split"`
	Model     string `json:"model"`
}

func (h *Handler) ListJokers(c *gin.Context) {
	response.Success(c, h.services.Game.Jokers())
}

func (h *Handler) Score(c *gin.Context) {
	var body scoreBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.services.Game.Score(c.Request.Context(), body.Available, body.Played)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *Handler) Optimize(c *gin.Context) {
	var body optimizeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.services.Game.Optimize(c.Request.Context(), body.Available)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *Handler) GetDataset(c *gin.Context) {
	ds, err := h.services.Dataset.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, ds)
}

func (h *Handler) ListDatasetItems(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 50)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Dataset.ListItems(c.Request.Context(), c.Param("id"), dataset.ListItemsFilter{
		Split: c.Query("split"),
		Page:  page,
		Size:  size,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Paged(c, result.Items, result.Total, page, size)
}

func (h *Handler) SubmitBenchmark(c *gin.Context) {
	var body submitBenchmarkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Benchmark.Submit(c.Request.Context(), benchmark.SubmitParams{
		DatasetID: body.DatasetID,
		Split:     body.Split,
		Model:     body.Model,
		Plays:     body.Plays,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) GetBenchmark(c *gin.Context) {
	result, err := h.services.Benchmark.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, resp)
}

func (h *Handler) AdminProfile(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, appErr.ErrUnauthorized.Error())
		return
	}

	info, err := h.services.Admin.Profile(c.Request.Context(), adminID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *Handler) AdminGenerateDataset(c *gin.Context) {
	var body generateDatasetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	ds, err := h.services.Dataset.Generate(c.Request.Context(), body.toParams())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, ds)
}

func (h *Handler) AdminReoptimizeDataset(c *gin.Context) {
	updated, err := h.services.Dataset.Reoptimize(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

func (h *Handler) AdminAttemptBenchmark(c *gin.Context) {
	var body attemptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Benchmark.Attempt(c.Request.Context(), body.DatasetID, body.Split, body.Model)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	response.Error(c, errorStatus(err), err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, appErr.ErrUnknownJoker):
		return http.StatusUnprocessableEntity
	case errors.Is(err, appErr.ErrInvalidCardList),
		errors.Is(err, appErr.ErrInvalidHandSize),
		errors.Is(err, appErr.ErrPoolTooLarge),
		errors.Is(err, appErr.ErrUnknownAlgorithm),
		errors.Is(err, appErr.ErrPlayCountMismatch):
		return http.StatusBadRequest
	case errors.Is(err, appErr.ErrDatasetNotFound),
		errors.Is(err, appErr.ErrBenchmarkNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErr.ErrAdminNotFound),
		errors.Is(err, appErr.ErrInvalidAdminPassword),
		errors.Is(err, appErr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, appErr.ErrAdminDisabled):
		return http.StatusForbidden
	case errors.Is(err, appErr.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func getAdminID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextAdminIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
