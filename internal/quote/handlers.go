package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/landed-quote/internal/common"
)

const defaultMaxBodyBytes = 16 << 10

// Quoter computes quotes. *Service implements it.
type Quoter interface {
	Quote(ctx context.Context, req Request) (Quote, error)
}

// QuoteRequest is the POST /api/v1/quotes payload.
type QuoteRequest struct {
	ProductID   string `json:"productId" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Destination string `json:"destination" validate:"omitempty,len=2,alpha"`
	Origin      string `json:"origin" validate:"omitempty,len=2,alpha"`
}

// Handler exposes the quote endpoints.
type Handler struct {
	service            Quoter
	validate           *validator.Validate
	defaultDestination string
	maxBodyBytes       int64
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service            Quoter
	Validator          *validator.Validate
	DefaultDestination string
	MaxBodyBytes       int64
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Handler{
		service:            cfg.Service,
		validate:           v,
		defaultDestination: strings.ToUpper(strings.TrimSpace(cfg.DefaultDestination)),
		maxBodyBytes:       maxBody,
	}
}

// Routes registers the quote endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quotes", h.Create)
	r.Get("/products/{productID}/quote", h.ProductQuote)
}

// Create handles POST /api/v1/quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote service not configured", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var body QuoteRequest
	if err := decoder.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.WriteError(w, common.NewAppError(common.CodeInvalidInput, "request body too large", http.StatusRequestEntityTooLarge, err))
			return
		}
		common.WriteError(w, common.InvalidInput("invalid JSON body", err))
		return
	}
	h.serve(w, r, body)
}

// ProductQuote handles GET /api/v1/products/{productID}/quote.
func (h *Handler) ProductQuote(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote service not configured", nil)
		return
	}
	values := r.URL.Query()
	body := QuoteRequest{
		ProductID:   chi.URLParam(r, "productID"),
		Destination: strings.TrimSpace(values.Get("destination")),
		Origin:      strings.TrimSpace(values.Get("origin")),
	}
	if raw := strings.TrimSpace(values.Get("quantity")); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			appErr := common.InvalidInput("quantity must be an integer", err)
			appErr.Details = []fieldError{{Field: "quantity", Rule: "int"}}
			common.WriteError(w, appErr)
			return
		}
		body.Quantity = qty
	}
	h.serve(w, r, body)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, body QuoteRequest) {
	if body.Destination == "" {
		body.Destination = h.defaultDestination
	}
	if err := h.validate.Struct(body); err != nil {
		appErr := common.InvalidInput("validation failed", err)
		appErr.Details = fieldErrors(err)
		common.WriteError(w, appErr)
		return
	}
	if body.Destination == "" {
		appErr := common.InvalidInput("validation failed", nil)
		appErr.Details = []fieldError{{Field: "destination", Rule: "required"}}
		common.WriteError(w, appErr)
		return
	}
	id, err := uuid.Parse(body.ProductID)
	if err != nil {
		common.WriteError(w, common.InvalidInput("productId must be a UUID", err))
		return
	}

	q, err := h.service.Quote(r.Context(), Request{
		ProductID:   id,
		Quantity:    body.Quantity,
		Destination: body.Destination,
		Origin:      body.Origin,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func fieldErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Field: jsonField(fe.Field()), Rule: fe.Tag()})
	}
	return out
}

func jsonField(name string) string {
	if name == "" {
		return name
	}
	switch name {
	case "ProductID":
		return "productId"
	}
	return strings.ToLower(name[:1]) + name[1:]
}
