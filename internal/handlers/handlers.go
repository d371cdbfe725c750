package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/aaronwang/auction-house/internal/engine"
	"github.com/aaronwang/auction-house/internal/models"
	"github.com/aaronwang/auction-house/internal/service"
)

// Handler contains HTTP request handlers
type Handler struct {
	biddingService *service.BiddingService
}

// NewHandler creates a new HTTP handler
func NewHandler(biddingService *service.BiddingService) *Handler {
	return &Handler{
		biddingService: biddingService,
	}
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auctions", h.CreateAuction).Methods("POST")
	api.HandleFunc("/auctions/{id}", h.GetAuction).Methods("GET")
	api.HandleFunc("/auctions/{id}/activate", h.ActivateAuction).Methods("POST")
	api.HandleFunc("/auctions/{id}/snapshot", h.GetSnapshot).Methods("GET")
	api.HandleFunc("/auctions/{id}/bids", h.GetBidHistory).Methods("GET")
	api.HandleFunc("/auctions/{id}/bid", h.PlaceBid).Methods("POST")
	api.HandleFunc("/auctions/{id}/buy-now", h.BuyNow).Methods("POST")

	// Middleware
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	return router
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "api-gateway",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateAuction records a new listing (pending approval).
func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SellerID == "" || req.Title == "" {
		respondError(w, http.StatusBadRequest, "Seller ID and title are required")
		return
	}

	auction, err := h.biddingService.CreateAuction(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidIncrement),
			errors.Is(err, service.ErrInvalidDuration),
			errors.Is(err, service.ErrInvalidBuyNow):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to create auction")
		}
		return
	}

	respondJSON(w, http.StatusCreated, auction)
}

// ActivateAuction flips a pending listing live (moderation hook).
func (h *Handler) ActivateAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	auction, err := h.biddingService.ActivateAuction(r.Context(), auctionID)
	if err != nil {
		if errors.Is(err, engine.ErrAuctionNotFound) {
			respondError(w, http.StatusNotFound, "Auction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to activate auction")
		return
	}

	respondJSON(w, http.StatusOK, auction)
}

// GetAuction retrieves the full auction record
func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	auction, err := h.biddingService.GetAuction(r.Context(), auctionID)
	if err != nil {
		if errors.Is(err, engine.ErrAuctionNotFound) {
			respondError(w, http.StatusNotFound, "Auction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve auction")
		return
	}

	respondJSON(w, http.StatusOK, auction)
}

// GetSnapshot returns the cached display state (lock-free read path).
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	snap, err := h.biddingService.GetSnapshot(r.Context(), auctionID)
	if err != nil {
		if errors.Is(err, engine.ErrAuctionNotFound) {
			respondError(w, http.StatusNotFound, "Auction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshot")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetBidHistory returns the bid ledger for an auction, newest first
func (h *Handler) GetBidHistory(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bids, err := h.biddingService.BidHistory(r.Context(), auctionID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve bids")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"auction_id": auctionID,
		"bids":       bids,
	})
}

// PlaceBid handles bid placement requests
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	var bidReq models.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&bidReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if bidReq.BidderID == "" {
		respondError(w, http.StatusBadRequest, "Bidder ID is required")
		return
	}
	if bidReq.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "Bid amount must be positive")
		return
	}

	response, err := h.biddingService.PlaceBid(r.Context(), auctionID, &bidReq)
	if err != nil {
		if errors.Is(err, engine.ErrAuctionNotFound) {
			respondError(w, http.StatusNotFound, "Auction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to place bid")
		return
	}

	statusCode := http.StatusOK
	if response.Accepted {
		statusCode = http.StatusCreated
	}

	respondJSON(w, statusCode, response)
}

// BuyNow ends a live auction immediately at the buy-now price
func (h *Handler) BuyNow(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	var req struct {
		BuyerID string `json:"buyer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BuyerID == "" {
		respondError(w, http.StatusBadRequest, "Buyer ID is required")
		return
	}

	auction, err := h.biddingService.BuyNow(r.Context(), auctionID, req.BuyerID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrAuctionNotFound):
			respondError(w, http.StatusNotFound, "Auction not found")
		case errors.Is(err, engine.ErrBuyNowUnavailable):
			respondError(w, http.StatusConflict, "Buy now is not available for this auction")
		case errors.Is(err, engine.ErrCannotBuyOwn):
			respondError(w, http.StatusForbidden, "Cannot buy your own listing")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to buy auction")
		}
		return
	}

	respondJSON(w, http.StatusOK, auction)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		println(time.Now().Format(time.RFC3339), r.Method, r.RequestURI, duration.String())
	})
}

// corsMiddleware adds CORS headers (for development)
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
