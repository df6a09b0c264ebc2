package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"briq/internal/platform/middleware"
	"briq/internal/rental/models"
	"briq/internal/rental/service"
	trust "briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
	"briq/pkg/platform/httputil"
	"briq/pkg/requestcontext"
)

// Coordinator is the rental saga as seen by HTTP.
type Coordinator interface {
	Draft(terms models.Terms) (*service.Draft, error)
	Propose(ctx context.Context, p service.Proposal) (*service.Outcome, error)
	Terminate(ctx context.Context, propertyID string, term trust.Termination) (*service.Outcome, error)
	AgreementForProperty(ctx context.Context, propertyID string) (*models.Agreement, error)
	AgreementsForLandlord(ctx context.Context, landlord string) ([]*models.Agreement, error)
}

// Reconciler repairs half-applied agreements on demand.
type Reconciler interface {
	Run(ctx context.Context) (service.Report, error)
}

type Handler struct {
	coordinator  Coordinator
	reconciler   Reconciler
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	adminToken   string
}

func New(coordinator Coordinator, reconciler Reconciler, logger *slog.Logger, jwtValidator middleware.JWTValidator, adminToken string) *Handler {
	return &Handler{
		coordinator:  coordinator,
		reconciler:   reconciler,
		logger:       logger,
		jwtValidator: jwtValidator,
		adminToken:   adminToken,
	}
}

// Register mounts rental and operator endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/rentals", func(r chi.Router) {
		r.Get("/properties/{propertyID}", h.HandleGetAgreement)
		r.Get("/landlords/{address}/agreements", h.HandleListForLandlord)
		r.Post("/agreements/message", h.HandleDraft)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			r.Post("/agreements", h.HandlePropose)
			r.Post("/properties/{propertyID}/terminate", h.HandleTerminate)
		})
	})
	r.With(middleware.RequireAdminToken(h.adminToken, h.logger)).
		Post("/admin/rentals/reconcile", h.HandleReconcile)
}

// TermsRequest carries agreement terms as clients send them.
type TermsRequest struct {
	PropertyID  string    `json:"property_id"`
	Landlord    string    `json:"landlord_address"`
	Tenant      string    `json:"tenant_address"`
	MonthlyRent string    `json:"monthly_rent"`
	Deposit     string    `json:"deposit"`
	StartDate   time.Time `json:"start_date"`
	Nonce       string    `json:"nonce,omitempty"`
}

func (r *TermsRequest) Validate() error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	return nil
}

func (r *TermsRequest) terms() models.Terms {
	return models.Terms{
		PropertyID:  r.PropertyID,
		Landlord:    r.Landlord,
		Tenant:      r.Tenant,
		MonthlyRent: trust.Amount(r.MonthlyRent),
		Deposit:     trust.Amount(r.Deposit),
		StartDate:   r.StartDate,
		Nonce:       r.Nonce,
	}
}

// ProposeRequest is the body of POST /rentals/agreements.
type ProposeRequest struct {
	TermsRequest
	AgreementHash string `json:"agreement_hash"`
	Signature     string `json:"signature"`
}

func (r *ProposeRequest) Validate() error {
	if err := r.TermsRequest.Validate(); err != nil {
		return err
	}
	if r.AgreementHash == "" || r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "agreement_hash and signature are required")
	}
	return nil
}

// TerminateRequest is the body of POST /rentals/properties/{propertyID}/terminate.
type TerminateRequest struct {
	ReasonForLeaving string `json:"reason_for_leaving"`
	EarlyTermination bool   `json:"early_termination"`
}

func (r *TerminateRequest) Validate() error {
	if reason := trust.LeaveReason(r.ReasonForLeaving); reason != "" && !reason.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown reason_for_leaving %q", r.ReasonForLeaving)
	}
	return nil
}

// HandleDraft handles POST /rentals/agreements/message.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TermsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.coordinator.Draft(req.terms())
	if err != nil {
		h.fail(ctx, w, "draft agreement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DraftResponse{
		Terms:         FromTerms(d.Terms),
		AgreementHash: d.Hash,
		Message:       d.Message,
	})
}

// HandlePropose handles POST /rentals/agreements. A degraded saga still
// answers 202: the agreement is stored and the reconciler finishes it.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ProposeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.coordinator.Propose(ctx, service.Proposal{
		Terms:     req.terms(),
		Hash:      req.AgreementHash,
		Signature: req.Signature,
	})
	if err != nil {
		h.fail(ctx, w, "propose agreement", err)
		return
	}
	status := http.StatusCreated
	switch {
	case out.Degraded:
		status = http.StatusAccepted
	case out.Replayed:
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, FromOutcome(out))
}

// HandleGetAgreement handles GET /rentals/properties/{propertyID}.
func (h *Handler) HandleGetAgreement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.coordinator.AgreementForProperty(ctx, chi.URLParam(r, "propertyID"))
	if err != nil {
		h.fail(ctx, w, "load agreement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAgreement(a))
}

// HandleListForLandlord handles GET /rentals/landlords/{address}/agreements.
func (h *Handler) HandleListForLandlord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.coordinator.AgreementsForLandlord(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "list agreements", err)
		return
	}
	resp := ListResponse{Agreements: make([]*AgreementResponse, 0, len(list))}
	for _, a := range list {
		resp.Agreements = append(resp.Agreements, FromAgreement(a))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleTerminate handles POST /rentals/properties/{propertyID}/terminate.
func (h *Handler) HandleTerminate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TerminateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.coordinator.Terminate(ctx, chi.URLParam(r, "propertyID"), trust.Termination{
		Reason:           trust.LeaveReason(req.ReasonForLeaving),
		EarlyTermination: req.EarlyTermination,
	})
	if err != nil {
		h.fail(ctx, w, "terminate agreement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(out))
}

// HandleReconcile handles POST /admin/rentals/reconcile.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.reconciler.Run(ctx)
	if err != nil {
		h.fail(ctx, w, "reconcile agreements", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, what string, err error) {
	h.logger.WarnContext(ctx, "failed to "+what,
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
