package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// RouteRequest describes one delivery route to play back: the simulator walks
// a driver from the store to the drop-off, posting location pings through the
// public API exactly like the driver app would.
type RouteRequest struct {
	OrderID  int64   `json:"order_id" binding:"required"`
	DriverID int64   `json:"driver_id" binding:"required"`
	FromLat  float64 `json:"from_lat" binding:"required"`
	FromLng  float64 `json:"from_lng" binding:"required"`
	ToLat    float64 `json:"to_lat" binding:"required"`
	ToLng    float64 `json:"to_lng" binding:"required"`
	Steps    int     `json:"steps"`
	Interval string  `json:"interval"`
}

type RouteStatus struct {
	OrderID   int64     `json:"order_id"`
	DriverID  int64     `json:"driver_id"`
	Step      int       `json:"step"`
	Steps     int       `json:"steps"`
	StartedAt time.Time `json:"started_at"`
}

type playback struct {
	req       RouteRequest
	interval  time.Duration
	step      int
	startedAt time.Time
	stop      chan struct{}
}

type Simulator struct {
	apiBase string
	client  *fasthttp.Client
	rng     *rand.Rand

	mu     sync.Mutex
	routes map[int64]*playback
}

func NewSimulator(apiBase string) *Simulator {
	return &Simulator{
		apiBase: apiBase,
		client: &fasthttp.Client{
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		routes: make(map[int64]*playback),
	}
}

func (s *Simulator) StartRoute(req RouteRequest) error {
	interval := 2 * time.Second
	if req.Interval != "" {
		d, err := time.ParseDuration(req.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval: %w", err)
		}
		interval = d
	}
	if req.Steps <= 0 {
		req.Steps = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[req.OrderID]; ok {
		return fmt.Errorf("route for order %d is already playing", req.OrderID)
	}

	pb := &playback{
		req:       req,
		interval:  interval,
		startedAt: time.Now(),
		stop:      make(chan struct{}),
	}
	s.routes[req.OrderID] = pb

	go s.play(pb)
	return nil
}

func (s *Simulator) StopRoute(orderID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pb, ok := s.routes[orderID]
	if !ok {
		return false
	}
	close(pb.stop)
	delete(s.routes, orderID)
	return true
}

func (s *Simulator) ActiveRoutes() []RouteStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RouteStatus, 0, len(s.routes))
	for _, pb := range s.routes {
		out = append(out, RouteStatus{
			OrderID:   pb.req.OrderID,
			DriverID:  pb.req.DriverID,
			Step:      pb.step,
			Steps:     pb.req.Steps,
			StartedAt: pb.startedAt,
		})
	}
	return out
}

// play interpolates the route linearly with a little jitter so the pings look
// like a real phone on a real road.
func (s *Simulator) play(pb *playback) {
	req := pb.req
	ticker := time.NewTicker(pb.interval)
	defer ticker.Stop()

	for i := 0; i <= req.Steps; i++ {
		select {
		case <-pb.stop:
			log.Info().Int64("order_id", req.OrderID).Msg("route playback stopped")
			return
		case <-ticker.C:
		}

		t := float64(i) / float64(req.Steps)
		lat := req.FromLat + (req.ToLat-req.FromLat)*t + s.jitter()
		lng := req.FromLng + (req.ToLng-req.FromLng)*t + s.jitter()

		if err := s.postPing(req, lat, lng); err != nil {
			log.Warn().
				Int64("order_id", req.OrderID).
				Err(err).
				Msg("ping rejected")
		} else {
			log.Info().
				Int64("order_id", req.OrderID).
				Float64("lat", lat).
				Float64("lng", lng).
				Int("step", i).
				Msg("ping posted")
		}

		s.mu.Lock()
		pb.step = i
		s.mu.Unlock()
	}

	s.mu.Lock()
	delete(s.routes, req.OrderID)
	s.mu.Unlock()
	log.Info().Int64("order_id", req.OrderID).Msg("route playback finished")
}

func (s *Simulator) jitter() float64 {
	return (s.rng.Float64() - 0.5) * 0.0004
}

func (s *Simulator) postPing(route RouteRequest, lat, lng float64) error {
	body, _ := json.Marshal(map[string]any{
		"lat":       lat,
		"lng":       lng,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/orders/%d/driver-location", s.apiBase, route.OrderID))
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-User-Id", strconv.FormatInt(route.DriverID, 10))
	req.Header.Set("X-User-Role", "driver")
	req.SetBody(body)

	if err := s.client.Do(req, resp); err != nil {
		return err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

type Handler struct {
	sim *Simulator
}

func (h *Handler) StartRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.sim.StartRoute(req); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	log.Info().
		Int64("order_id", req.OrderID).
		Int64("driver_id", req.DriverID).
		Msg("route playback started")
	c.JSON(http.StatusAccepted, gin.H{"status": "playing"})
}

func (h *Handler) StopRoute(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id"})
		return
	}

	if !h.sim.StopRoute(orderID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active route for order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (h *Handler) ListRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": h.sim.ActiveRoutes()})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	v1 := router.Group("/api/v1")
	{
		v1.POST("/routes", handler.StartRoute)
		v1.DELETE("/routes/:order_id", handler.StopRoute)
		v1.GET("/routes", handler.ListRoutes)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	apiBase := getEnv("API_BASE_URL", "http://localhost:8080/api/v1")

	sim := NewSimulator(apiBase)
	handler := &Handler{sim: sim}
	router := SetupRouter(handler)

	log.Info().
		Str("port", port).
		Str("api_base", apiBase).
		Msg("driver route simulator listening")

	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("simulator stopped")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
