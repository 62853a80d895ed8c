// This is a http type of reporter.
// It fetches data from internal state/statedb
// and publishes on the http routes.

package reporter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/metrics"
	"github.com/Giveth/vaultcontract/state"
	"github.com/Giveth/vaultcontract/vault"
)

const (
	ROUTE_HELLO    = "/hello"
	ROUTE_VAULT    = "/vault"
	ROUTE_PAYMENTS = "/payments"
	ROUTE_PAYMENT  = "/payments/:id"
	ROUTE_SPENDERS = "/spenders"
	ROUTE_EVENTS   = "/events"
	ROUTE_METRICS  = "/metrics"

	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	statedb *state.StateDB

	metrics metrics.RequestMetrics
}

func NewHttpReporter(serverIP string, serverPort string, statedb *state.StateDB) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		statedb:    statedb,
		metrics:    metrics.NewDefaultRequestMetrics("reporter"),
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(h.instrument)

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_VAULT, h.Vault)
	router.GET(ROUTE_PAYMENTS, h.Payments)
	router.GET(ROUTE_PAYMENT, h.Payment)
	router.GET(ROUTE_SPENDERS, h.Spenders)
	router.GET(ROUTE_EVENTS, h.Events)
	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	return router
}

// Run serves the routes on ip:port until ctx is done.
func (h *HttpReporter) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              h.serverIP + ":" + h.serverPort,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("reporter listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (h *HttpReporter) instrument(c *gin.Context) {
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unknown"
	}
	timer := h.metrics.RequestTimer(endpoint)
	c.Next()
	timer.ObserveDuration()
	h.metrics.RequestCounter(endpoint, strconv.Itoa(c.Writer.Status())).Inc()
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

func (h *HttpReporter) Vault(c *gin.Context) {
	v, ok, err := h.statedb.GetVault()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "vault not synced yet"})
		return
	}

	view := NewVaultView(v)
	if n, ok, err := h.statedb.GetKeyedValue(state.KeyFinalizedBlock); err == nil && ok {
		view.SyncedBlock = n.Big().Uint64()
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// Payments lists payments by id. Optional query: status, offset, limit.
func (h *HttpReporter) Payments(c *gin.Context) {
	status := vault.PaymentStatus(c.Query("status"))
	switch status {
	case "", vault.PaymentStatusPending, vault.PaymentStatusPaid, vault.PaymentStatusCanceled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of pending, paid, canceled"})
		return
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := queryInt(c, "limit", DefaultPageLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	payments, err := h.statedb.GetPayments(status, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := h.statedb.CountPayments(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]*PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, NewPaymentView(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "total": total})
}

func (h *HttpReporter) Payment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a non-negative integer"})
		return
	}

	p, ok, err := h.statedb.GetPayment(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No payment found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": NewPaymentView(p)})
}

func (h *HttpReporter) Spenders(c *gin.Context) {
	spenders, err := h.statedb.GetSpenders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]*SpenderView, 0, len(spenders))
	for _, s := range spenders {
		views = append(views, NewSpenderView(s))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// Events lists indexed events in [from, to]. Both bounds are optional.
func (h *HttpReporter) Events(c *gin.Context) {
	from, err := queryInt(c, "from", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := queryInt(c, "to", -1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := queryInt(c, "limit", DefaultPageLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	upper := uint64(1<<63 - 1)
	if to >= 0 {
		upper = uint64(to)
	}
	if upper < uint64(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not exceed to"})
		return
	}

	events, err := h.statedb.GetEvents(uint64(from), upper, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]*EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, NewEventView(ev))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	s, ok := c.GetQuery(key)
	if !ok || s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}
