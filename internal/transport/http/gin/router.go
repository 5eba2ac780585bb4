package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-events/internal/domain"
	redisrepo "github.com/kirinyoku/tix-events/internal/repository/redis"
	"github.com/kirinyoku/tix-events/internal/service"
	"github.com/kirinyoku/tix-events/internal/service/registry"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const defaultImportMaxBytes = 8 << 20

// Idempotency stores purchase responses under a client-supplied key.
type Idempotency interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, status int, body []byte) error
	GetResult(ctx context.Context, key string) (redisrepo.StoredResponse, bool, error)
	Release(ctx context.Context, key string) error
}

// Options configures the optional parts of the router. Nil Idempotency or
// Limiter disables the feature.
type Options struct {
	Idempotency    Idempotency
	Limiter        RateLimiter
	AllowOrigins   []string
	ImportMaxBytes int64
}

func NewRouter(
	svcs *service.Services,
	opts Options,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if opts.ImportMaxBytes <= 0 {
		opts.ImportMaxBytes = defaultImportMaxBytes
	}

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(opts.AllowOrigins))
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// ticket-consuming routes
	limited := []gin.HandlerFunc{}
	if opts.Limiter != nil {
		limited = append(limited, RateLimitMiddleware(opts.Limiter, logger))
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, MessageResponse{Message: "Event Management API"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	events := r.Group("/events")
	{
		events.POST("", handleCreateEvent(svcs))
		events.GET("", handleListEvents(svcs))
		events.GET("/:id", handleGetEvent(svcs))
		events.PUT("/:id", handleUpdateEvent(svcs))
		events.DELETE("/:id", handleDeleteEvent(svcs))

		events.POST("/:id/attendees", append(limited, handleRegisterAttendee(svcs))...)
		events.GET("/:id/attendees", handleListAttendees(svcs))
		events.POST("/:id/purchase", append(limited, handlePurchase(svcs, opts.Idempotency))...)
	}

	r.GET("/attendees/:id", handleGetAttendee(svcs))
	r.PUT("/attendees/:id", handleUpdateAttendee(svcs))

	r.GET("/reports/sales", handleSalesReport(svcs))
	r.POST("/import/events", handleImportEvents(svcs, opts.ImportMaxBytes))

	return r
}

// @Summary  Create event
// @Param    req body  CreateEventRequest true "payload"
// @Success  200 {object} domain.Event
// @Failure  400 {object} ErrorResponse
// @Router   /events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		e, err := svcs.Ledger.Create(c.Request.Context(), req.toDomain())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, e)
	}
}

// @Summary  List events
// @Param    title      query  string  false  "case-insensitive title substring"
// @Param    date_from  query  string  false  "YYYY-MM-DD, inclusive"
// @Param    date_to    query  string  false  "YYYY-MM-DD, inclusive"
// @Success  200  {array}   domain.Event
// @Failure  400  {object}  ErrorResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := domain.EventFilter{Title: c.Query("title")}

		var ok bool
		if f.DateFrom, ok = parseDateQuery(c, "date_from"); !ok {
			return
		}
		if f.DateTo, ok = parseDateQuery(c, "date_to"); !ok {
			return
		}

		events, err := svcs.Ledger.List(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, events, cacheRevalidate)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		e, err := svcs.Ledger.Get(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, e, cacheRevalidate)
	}
}

// @Summary  Update event (partial)
// @Param    id   path  int                true  "Event ID"
// @Param    req  body  domain.EventPatch  true  "fields to change"
// @Success  200  {object}  domain.Event
// @Failure  400  {object}  ErrorResponse "capacity below tickets sold"
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [put]
func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var patch domain.EventPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err.Error())
			return
		}

		e, err := svcs.Ledger.Update(c.Request.Context(), eventID, patch)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, e)
	}
}

// @Summary  Delete event
// @Description Attendees of the event are kept.
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  DeleteResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [delete]
func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if err := svcs.Ledger.Delete(c.Request.Context(), eventID); err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, DeleteResponse{OK: true})
	}
}

// @Summary  Register attendee (reserves one ticket)
// @Param    id   path  int              true  "Event ID"
// @Param    req  body  AttendeeRequest  true  "payload"
// @Success  200  {object}  domain.Attendee
// @Failure  400  {object}  ErrorResponse "sold out"
// @Failure  404  {object}  ErrorResponse
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Router   /events/{id}/attendees [post]
func handleRegisterAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req AttendeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		a, err := svcs.Registry.RegisterOne(c.Request.Context(), eventID, req.Name, req.Email)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

// @Summary  List attendees of an event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {array}   domain.Attendee
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/attendees [get]
func handleListAttendees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		attendees, err := svcs.Registry.List(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, attendees, cacheRevalidate)
	}
}

// @Summary  Purchase tickets (idempotent)
// @Accept   x-www-form-urlencoded,json
// @Param    id           path      int     true   "Event ID"
// @Param    buyer_name   formData  string  true   "buyer name"
// @Param    buyer_email  formData  string  true   "buyer email"
// @Param    quantity     formData  int     false  "tickets, default 1"
// @Header   200 {string} Idempotency-Key "echo"
// @Success  200  {object}  domain.PurchaseResult
// @Failure  400  {object}  ErrorResponse "not enough tickets / bad quantity"
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse "idempotency key in progress"
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Router   /events/{id}/purchase [post]
func handlePurchase(svcs *service.Services, idem Idempotency) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req PurchaseRequest
		if err := c.ShouldBind(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(eventID, idemKey)

			if replayStored(c, idem, idemStorageKey, idemKey) {
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayStored(c, idem, idemStorageKey, idemKey) {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Detail: "idempotency key in progress"})
				return
			}
		}

		res, err := svcs.Registry.Purchase(ctx, registry.PurchaseInput{
			EventID:    eventID,
			BuyerName:  req.BuyerName,
			BuyerEmail: req.BuyerEmail,
			Quantity:   req.quantity(),
		})
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(context.WithoutCancel(ctx), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		b, err := json.Marshal(res)
		if err != nil {
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" {
			_ = idem.SaveResult(context.WithoutCancel(ctx), idemStorageKey, http.StatusOK, b)
			c.Header("Idempotency-Key", idemKey)
		}

		c.Data(http.StatusOK, "application/json; charset=utf-8", b)
	}
}

func replayStored(c *gin.Context, idem Idempotency, storageKey, idemKey string) bool {
	stored, ok, _ := idem.GetResult(c.Request.Context(), storageKey)
	if !ok {
		return false
	}

	c.Header("Idempotency-Key", idemKey)
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)

	return true
}

// @Summary  Get attendee
// @Param    id  path  int  true  "Attendee ID"
// @Success  200  {object}  domain.Attendee
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id} [get]
func handleGetAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		attendeeID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		a, err := svcs.Registry.Get(c.Request.Context(), attendeeID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Replace attendee name and email
// @Param    id   path  int              true  "Attendee ID"
// @Param    req  body  AttendeeRequest  true  "payload"
// @Success  200  {object}  domain.Attendee
// @Failure  404  {object}  ErrorResponse
// @Router   /attendees/{id} [put]
func handleUpdateAttendee(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		attendeeID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req AttendeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		a, err := svcs.Registry.Update(c.Request.Context(), attendeeID, req.Name, req.Email)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Sales report
// @Success  200  {object}  domain.SalesReport
// @Router   /reports/sales [get]
func handleSalesReport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := svcs.Report.Sales(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, rep)
	}
}

// @Summary  Import events from CSV
// @Accept   multipart/form-data
// @Param    file  formData  file  true  "CSV with a header row"
// @Success  200  {object}  domain.ImportResult
// @Failure  400  {object}  ErrorResponse
// @Failure  413  {object}  ErrorResponse
// @Router   /import/events [post]
func handleImportEvents(svcs *service.Services, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "upload too large"})
				return
			}
			badRequest(c, "file is required")
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondErr(c, err)
			return
		}
		defer f.Close()

		res, err := svcs.Importer.Import(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseDateQuery(c *gin.Context, name string) (*domain.Date, bool) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return nil, true
	}

	d, err := domain.ParseDate(s)
	if err != nil {
		badRequest(c, name+": "+err.Error())
		return nil, false
	}

	return &d, true
}
