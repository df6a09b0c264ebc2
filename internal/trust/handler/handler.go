package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"briq/internal/platform/middleware"
	"briq/internal/trust/models"
	"briq/internal/trust/projection"
	"briq/pkg/platform/httputil"
	"briq/pkg/requestcontext"
)

// Service defines the trust ledger operations exposed over HTTP.
type Service interface {
	Initialize(ctx context.Context, address string, userType models.UserType) (*models.Profile, error)
	Profile(ctx context.Context, address string) (*models.Profile, error)
	Summary(ctx context.Context, address string) (*models.Summary, error)
	AddRole(ctx context.Context, address string, side models.Side) (*models.Profile, error)
	RecordPayment(ctx context.Context, address string, rec models.PaymentRecord) (*models.Profile, error)
	SimulatePayment(ctx context.Context, address, propertyID string, amount models.Amount, onTime bool) (*models.Profile, error)
	RecordTenancy(ctx context.Context, address string, rec models.TenancyRecord) (*models.Profile, error)
	AdjustBehavioralScore(ctx context.Context, address string, dim models.Dimension, value int) (*models.Profile, error)
	RecordIncident(ctx context.Context, address string, incident models.Incident) (*models.Profile, error)
	RecordPropertyManaged(ctx context.Context, address string, rec models.PropertyManagementRecord) (*models.Profile, error)
	RecordDepositReturn(ctx context.Context, address string, rec models.DepositReturnRecord) (*models.Profile, error)
	SetLicenseStatus(ctx context.Context, address string, status models.LicenseStatus) (*models.Profile, error)
}

// MetadataReader serves the display metadata of an address.
type MetadataReader interface {
	Metadata(ctx context.Context, address string) (*projection.Metadata, error)
}

// Handler wires profile endpoints to the recorder.
type Handler struct {
	service      Service
	metadata     MetadataReader
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New constructs a trust handler. A nil validator leaves mutations open.
func New(service Service, metadata MetadataReader, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		metadata:     metadata,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts profile endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/{address}", h.HandleGetProfile)
		r.Get("/{address}/summary", h.HandleSummary)
		r.Get("/{address}/metadata", h.HandleMetadata)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			r.Post("/", h.HandleInitialize)
			r.Post("/{address}/roles", h.HandleAddRole)
			r.Post("/{address}/payments", h.HandleRecordPayment)
			r.Post("/{address}/payments/simulate", h.HandleSimulatePayment)
			r.Post("/{address}/tenancies", h.HandleRecordTenancy)
			r.Post("/{address}/scores", h.HandleAdjustScore)
			r.Post("/{address}/incidents", h.HandleRecordIncident)
			r.Post("/{address}/properties", h.HandleRecordProperty)
			r.Post("/{address}/deposit-returns", h.HandleRecordDepositReturn)
			r.Put("/{address}/license", h.HandleSetLicense)
		})
	})
}

// HandleInitialize handles POST /profiles.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[InitializeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.Initialize(ctx, req.Address, req.userType)
	if err != nil {
		h.fail(ctx, w, "initialize profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProfile(p))
}

// HandleGetProfile handles GET /profiles/{address}.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.Profile(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(p))
}

// HandleSummary handles GET /profiles/{address}/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := h.service.Summary(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "load summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(s))
}

// HandleMetadata handles GET /profiles/{address}/metadata.
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := h.metadata.Metadata(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "load metadata", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) HandleAddRole(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "add role", func(ctx context.Context, address string, req *RoleRequest) (*models.Profile, error) {
		return h.service.AddRole(ctx, address, req.side)
	})
}

func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "record payment", func(ctx context.Context, address string, req *PaymentRequest) (*models.Profile, error) {
		return h.service.RecordPayment(ctx, address, req.record())
	})
}

func (h *Handler) HandleSimulatePayment(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "simulate payment", func(ctx context.Context, address string, req *SimulatePaymentRequest) (*models.Profile, error) {
		return h.service.SimulatePayment(ctx, address, req.PropertyID, req.amount, req.OnTime)
	})
}

func (h *Handler) HandleRecordTenancy(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "record tenancy", func(ctx context.Context, address string, req *TenancyRequest) (*models.Profile, error) {
		return h.service.RecordTenancy(ctx, address, req.record())
	})
}

func (h *Handler) HandleAdjustScore(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "adjust score", func(ctx context.Context, address string, req *ScoreRequest) (*models.Profile, error) {
		return h.service.AdjustBehavioralScore(ctx, address, req.dimension, *req.Value)
	})
}

func (h *Handler) HandleRecordIncident(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "record incident", func(ctx context.Context, address string, req *IncidentRequest) (*models.Profile, error) {
		return h.service.RecordIncident(ctx, address, req.incident)
	})
}

func (h *Handler) HandleRecordProperty(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "record property", func(ctx context.Context, address string, req *PropertyRequest) (*models.Profile, error) {
		return h.service.RecordPropertyManaged(ctx, address, req.record())
	})
}

func (h *Handler) HandleRecordDepositReturn(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "record deposit return", func(ctx context.Context, address string, req *DepositReturnRequest) (*models.Profile, error) {
		return h.service.RecordDepositReturn(ctx, address, req.record())
	})
}

func (h *Handler) HandleSetLicense(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, "set license", func(ctx context.Context, address string, req *LicenseRequest) (*models.Profile, error) {
		return h.service.SetLicenseStatus(ctx, address, req.status)
	})
}

// mutate decodes a request for the {address} profile, applies op and writes
// the updated profile.
func mutate[T any, PT interface {
	*T
	httputil.Validatable
}](h *Handler, w http.ResponseWriter, r *http.Request, what string, op func(context.Context, string, PT) (*models.Profile, error)) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[T, PT](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := op(ctx, chi.URLParam(r, "address"), PT(req))
	if err != nil {
		h.fail(ctx, w, what, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(p))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, what string, err error) {
	h.logger.WarnContext(ctx, "failed to "+what,
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
