package api

import (
	"time"

	models "MarketMind/internal/domain/models"
	domrepo "MarketMind/internal/domain/repository"
	domsvc "MarketMind/internal/domain/service"
	"MarketMind/internal/governance"
	svcmetrics "MarketMind/internal/service/metrics"
	"MarketMind/internal/usecase"
	xhttp "MarketMind/pkg/http"
	xlogger "MarketMind/pkg/logger"
	"MarketMind/pkg/queue"
	"MarketMind/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AnalyzeHandler implements Echo-based HTTP handlers following Clean Architecture.
type AnalyzeHandler struct {
	logger     *xlogger.Logger
	classifier domsvc.Classifier
	pass       *usecase.AnalysisPass
	storage    domrepo.Storage
	table      domsvc.CapabilityTable
	gate       *governance.Gate
	queue      queue.QueueService
}

func NewAnalyzeHandler(
	logger *xlogger.Logger,
	classifier domsvc.Classifier,
	pass *usecase.AnalysisPass,
	storage domrepo.Storage,
	table domsvc.CapabilityTable,
	gate *governance.Gate,
	q queue.QueueService,
) *AnalyzeHandler {
	svcmetrics.Register()
	return &AnalyzeHandler{
		logger:     logger,
		classifier: classifier,
		pass:       pass,
		storage:    storage,
		table:      table,
		gate:       gate,
		queue:      q,
	}
}

func (h *AnalyzeHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/async", h.AnalyzeAsync)
	g.GET("/agents", h.Agents)
	g.GET("/governance", h.Governance)
	g.GET("/intelligence/recent", h.RecentIntelligence)
}

// Analyze runs one synchronous analysis pass and returns the full artifact.
func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	start := time.Now()
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	item := &models.NewsItem{
		ID:          uuid.NewString(),
		Symbol:      req.Symbol,
		Headline:    req.Headline,
		Body:        req.Body,
		Source:      req.Source,
		PublishedAt: time.Now().UTC(),
	}

	cls, err := h.classifier.Classify(c.Request().Context(), item)
	if err != nil {
		svcmetrics.AnalysisErrors.WithLabelValues("analyze").Inc()
		h.logger.Error("classify error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.pass.Run(c.Request().Context(), cls, item)
	if err != nil {
		svcmetrics.AnalysisErrors.WithLabelValues("analyze").Inc()
		h.logger.Error("analysis pass error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	svcmetrics.AnalysisLatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	svcmetrics.FusionStrategies.WithLabelValues(string(res.Fused.Strategy)).Inc()
	return xhttp.SuccessResponse(c, res)
}

// AnalyzeAsync enqueues a pass for background execution and returns the
// request id immediately.
func (h *AnalyzeHandler) AnalyzeAsync(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.queue == nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("async queue disabled"))
	}

	job := usecase.AnalysisRequest{
		ID:       uuid.NewString(),
		Symbol:   req.Symbol,
		Headline: req.Headline,
		Body:     req.Body,
		Source:   req.Source,
	}
	if err := h.queue.PublishMessage(c.Request().Context(), usecase.AnalysisRequestType, job); err != nil {
		svcmetrics.AnalysisErrors.WithLabelValues("analyze_async").Inc()
		h.logger.Error("enqueue analysis request", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"request_id": job.ID, "status": "queued"})
}

// Agents returns the capability table.
func (h *AnalyzeHandler) Agents(c echo.Context) error {
	names := h.table.ListAgents()
	specs := make([]models.AgentSpec, 0, len(names))
	for _, n := range names {
		if spec, ok := h.table.GetSpec(n); ok {
			specs = append(specs, spec)
		}
	}
	return xhttp.SuccessResponse(c, specs)
}

// Governance returns per-agent admission bookkeeping.
func (h *AnalyzeHandler) Governance(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.gate.Stats())
}

// RecentIntelligence queries stored passes for a symbol.
func (h *AnalyzeHandler) RecentIntelligence(c echo.Context) error {
	req := &models.RecentIntelligenceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	to := util.ParseTimeDefault(req.To, now)
	from := util.ParseTimeDefault(req.From, to.Add(-24*time.Hour))
	from, to = util.BoundWindow(from, to, 7*24*time.Hour)
	rows, err := h.storage.QueryRecent(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		svcmetrics.AnalysisErrors.WithLabelValues("intelligence_recent").Inc()
		h.logger.Error("recent intelligence query", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
