package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gestorzap/campaign-engine/internal/models"
	"github.com/gestorzap/campaign-engine/internal/service"
)

// CampaignControl exposes the dispatcher's lifecycle operations.
type CampaignControl interface {
	Start(ctx context.Context, campaignID int64) error
	Pause(ctx context.Context, campaignID int64) error
	Resume(ctx context.Context, campaignID int64) error
	Cancel(ctx context.Context, campaignID int64) error
}

// CampaignHandler handles campaign HTTP requests
type CampaignHandler struct {
	campaignService service.CampaignService
	statusService   service.StatusService
	control         CampaignControl
	logger          *slog.Logger
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(
	campaignService service.CampaignService,
	statusService service.StatusService,
	control CampaignControl,
	logger *slog.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		statusService:   statusService,
		control:         control,
		logger:          logger,
	}
}

// Routes mounts the campaign routes
func (h *CampaignHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateCampaign)
	r.Get("/", h.ListCampaigns)
	r.Get("/{id}", h.GetCampaign)
	r.Delete("/{id}", h.DeleteCampaign)
	r.Get("/{id}/status", h.GetStatus)
	r.Get("/{id}/deliveries", h.ListDeliveries)
	r.Post("/{id}/preview", h.Preview)
	r.Post("/{id}/start", h.StartCampaign)
	r.Post("/{id}/pause", h.PauseCampaign)
	r.Post("/{id}/resume", h.ResumeCampaign)
	r.Post("/{id}/cancel", h.CancelCampaign)
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	campaign, err := h.campaignService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondCreated(w, campaign)
}

// ListCampaigns handles GET /campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	filter := models.CampaignFilter{
		Status:   query.Get("status"),
		Instance: query.Get("instance"),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.campaignService.List(r.Context(), filter)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, result)
}

// GetCampaign handles GET /campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, campaign)
}

// DeleteCampaign handles DELETE /campaigns/{id}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	if err := h.campaignService.Delete(r.Context(), id); err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondNoContent(w)
}

// GetStatus handles GET /campaigns/{id}/status
func (h *CampaignHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	progress, err := h.statusService.Progress(r.Context(), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, progress)
}

// ListDeliveries handles GET /campaigns/{id}/deliveries
func (h *CampaignHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	result, err := h.campaignService.ListDeliveries(r.Context(), models.DeliveryFilter{
		CampaignID: id,
		Status:     query.Get("status"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, result)
}

// Preview handles POST /campaigns/{id}/preview
func (h *CampaignHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	var req service.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	result, err := h.campaignService.Preview(r.Context(), id, &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, result)
}

// StartCampaign handles POST /campaigns/{id}/start
func (h *CampaignHandler) StartCampaign(w http.ResponseWriter, r *http.Request) {
	h.controlAction(w, r, h.control.Start)
}

// PauseCampaign handles POST /campaigns/{id}/pause
func (h *CampaignHandler) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	h.controlAction(w, r, h.control.Pause)
}

// ResumeCampaign handles POST /campaigns/{id}/resume
func (h *CampaignHandler) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	h.controlAction(w, r, h.control.Resume)
}

// CancelCampaign handles POST /campaigns/{id}/cancel
func (h *CampaignHandler) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	h.controlAction(w, r, h.control.Cancel)
}

func (h *CampaignHandler) controlAction(w http.ResponseWriter, r *http.Request, action func(context.Context, int64) error) {
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	if err := action(r.Context(), id); err != nil {
		handleError(w, err, h.logger)
		return
	}

	campaign, err := h.campaignService.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, campaign)
}

func (h *CampaignHandler) campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid campaign ID")
		return 0, false
	}
	return id, true
}
