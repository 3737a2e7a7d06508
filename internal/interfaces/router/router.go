package router

import (
	"net/http"

	convsvc "satfolio-backend/internal/application/conversion"
	holdsvc "satfolio-backend/internal/application/holdings"
	locksvc "satfolio-backend/internal/application/locks"
	portsvc "satfolio-backend/internal/application/portfolio"
	pricesvc "satfolio-backend/internal/application/pricing"
	"satfolio-backend/internal/config"
	"satfolio-backend/internal/infrastructure/database"
	convhandler "satfolio-backend/internal/interfaces/handlers/conversion"
	healthhandler "satfolio-backend/internal/interfaces/handlers/health"
	holdhandler "satfolio-backend/internal/interfaces/handlers/holdings"
	porthandler "satfolio-backend/internal/interfaces/handlers/portfolio"
	pricehandler "satfolio-backend/internal/interfaces/handlers/pricing"
	"satfolio-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	if db != nil {
		fetcher := pricesvc.NewHTTPFetcher(cfg.BaseQuoteURL, cfg.CommodityQuoteURL, cfg.EquityQuoteURL, cfg.QuoteAPIKey)
		prices := pricesvc.NewService(db, fetcher)
		lockCalc := locksvc.NewService(db)
		engine := convsvc.NewService(db, prices, lockCalc)
		valuation := portsvc.NewService(db, prices, lockCalc)

		// Prices (display path; degrades to cached values)
		ph := &pricehandler.Handlers{Service: prices}
		pg := app.Group("/api/v1/prices", middleware.RequireAuth())
		pg.Get("/", ph.GetPrices)
		pg.Get("/:symbol", ph.GetPrice)

		// Holdings + assets
		hs := &holdsvc.Service{DB: db, GrantSubunits: cfg.InitialGrantSubunits}
		holdh := &holdhandler.Handlers{Service: hs}
		hg := app.Group("/api/v1/holdings", middleware.RequireAuth())
		hg.Get("/", holdh.View)
		hg.Post("/initial-grant", holdh.InitialGrant)
		app.Get("/api/v1/assets", middleware.RequireAuth(), holdh.ListAssets)

		// Portfolio valuation + lock info
		porth := &porthandler.Handlers{Service: valuation, Locks: lockCalc}
		ptg := app.Group("/api/v1/portfolio", middleware.RequireAuth())
		ptg.Get("/", porth.Get)
		ptg.Get("/lock-info", porth.LockInfo)

		// Conversions
		ch := &convhandler.Handlers{Service: engine}
		cg := app.Group("/api/v1/conversions", middleware.RequireAuth())
		cg.Post("/execute", ch.Execute)
		cg.Get("/history", ch.History)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
