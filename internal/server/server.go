package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/scsaalabs/memberhub/internal/account/domain"
	announcementdomain "github.com/scsaalabs/memberhub/internal/announcement/domain"
	"github.com/scsaalabs/memberhub/internal/billing/webhook"
	"github.com/scsaalabs/memberhub/internal/config"
	"github.com/scsaalabs/memberhub/internal/dashboard"
	eventdomain "github.com/scsaalabs/memberhub/internal/event/domain"
	membershipdomain "github.com/scsaalabs/memberhub/internal/membership/domain"
	paymentdomain "github.com/scsaalabs/memberhub/internal/payment/domain"
	"github.com/scsaalabs/memberhub/internal/receipt"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config          config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	Processor       *webhook.Processor
	Accounts        accountdomain.Repository
	Memberships     membershipdomain.Repository
	Payments        paymentdomain.Repository
	EventSvc        eventdomain.Service
	AnnouncementSvc announcementdomain.Service
	Dashboard       *dashboard.Service
	Receipts        *receipt.Generator
}

type Server struct {
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	processor       *webhook.Processor
	accounts        accountdomain.Repository
	memberships     membershipdomain.Repository
	payments        paymentdomain.Repository
	eventSvc        eventdomain.Service
	announcementSvc announcementdomain.Service
	dashboard       *dashboard.Service
	receipts        *receipt.Generator
}

func New(p Params) *Server {
	return &Server{
		cfg:             p.Config,
		db:              p.DB,
		log:             p.Log.Named("server"),
		processor:       p.Processor,
		accounts:        p.Accounts,
		memberships:     p.Memberships,
		payments:        p.Payments,
		eventSvc:        p.EventSvc,
		announcementSvc: p.AnnouncementSvc,
		dashboard:       p.Dashboard,
		receipts:        p.Receipts,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.RequestID(), s.RequestLogger())

	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/webhooks/stripe", s.HandleStripeWebhook)

		v1.GET("/events", s.ListEvents)
		v1.GET("/events/:slug", s.GetEvent)
		v1.GET("/announcements", s.ListAnnouncements)
		v1.GET("/announcements/:slug", s.GetAnnouncement)

		member := v1.Group("", s.IdentityRequired())
		{
			member.GET("/membership", s.GetOwnMembership)
			member.GET("/membership/status", s.GetOwnMembershipStatus)
			member.GET("/payments", s.ListOwnPayments)
			member.GET("/payments/:id/receipt", s.GetPaymentReceipt)
		}

		admin := v1.Group("/admin", s.IdentityRequired(), s.AdminRequired())
		{
			admin.GET("/accounts", s.ListAccounts)
			admin.GET("/accounts/:accountID", s.GetAccount)
			admin.GET("/accounts/:accountID/membership", s.GetAccountMembership)
			admin.GET("/accounts/:accountID/payments", s.ListAccountPayments)
			admin.GET("/stats", s.GetDashboardStats)

			admin.POST("/events", s.CreateEvent)
			admin.PATCH("/events/:id", s.UpdateEvent)
			admin.DELETE("/events/:id", s.DeleteEvent)
			admin.GET("/events", s.ListAllEvents)

			admin.POST("/announcements", s.CreateAnnouncement)
			admin.PATCH("/announcements/:id", s.UpdateAnnouncement)
			admin.DELETE("/announcements/:id", s.DeleteAnnouncement)
			admin.GET("/announcements", s.ListAllAnnouncements)
		}
	}

	return r
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(start),
)

func start(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
