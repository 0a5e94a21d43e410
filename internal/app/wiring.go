// Package app wires together every package under internal/ into the two
// runnable shapes cmd/server and cmd/worker need, plus the combined
// RUN_MODE=all deployment that runs both in one process.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cvenhancer/core/internal/browser"
	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/extract"
	"github.com/cvenhancer/core/internal/httpapi"
	"github.com/cvenhancer/core/internal/llm"
	"github.com/cvenhancer/core/internal/objectstore"
	"github.com/cvenhancer/core/internal/processor"
	"github.com/cvenhancer/core/internal/queue"
	"github.com/cvenhancer/core/internal/service"
	"github.com/cvenhancer/core/internal/store/postgres"
	"github.com/cvenhancer/core/internal/version"
	"github.com/cvenhancer/core/internal/webhook"
)

// Repos is every Postgres repository (domain.XxxRepository port) built atop
// a single pool, grounded on the teacher's "one constructor per collection
// over a shared pool" layout in internal/store/postgres.
type Repos struct {
	Users       domain.UserRepository
	CVs         domain.CVRepository
	Versions    domain.VersionRepository
	Jobs        domain.JobRepository
	Generations domain.GenerationRepository
	ATS         domain.ATSRepository
	Parsing     domain.ParsingRepository
	Webhooks    domain.WebhookRepository
	Deliveries  domain.DeliveryRepository
}

// NewRepos constructs every repository over pool.
func NewRepos(pool *pgxpool.Pool) Repos {
	return Repos{
		Users:       postgres.NewUserRepo(pool),
		CVs:         postgres.NewCVRepo(pool),
		Versions:    postgres.NewVersionRepo(pool),
		Jobs:        postgres.NewJobRepo(pool),
		Generations: postgres.NewGenerationRepo(pool),
		ATS:         postgres.NewATSRepo(pool),
		Parsing:     postgres.NewParsingRepo(pool),
		Webhooks:    postgres.NewWebhookRepo(pool),
		Deliveries:  postgres.NewDeliveryRepo(pool),
	}
}

// Services is the full §6 service surface the HTTP layer calls into.
type Services struct {
	Parsing    *service.ParsingService
	Optimize   *service.OptimizeService
	ATS        *service.ATSService
	Generation *service.GenerationService
	Jobs       *service.JobService
	Webhooks   *service.WebhookService
}

// App is the fully wired dependency graph shared by cmd/server and
// cmd/worker: either binary uses the pieces it needs and leaves the rest
// idle, so RUN_MODE=all can run both out of the same App.
type App struct {
	Cfg Config

	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Repos  Repos
	Object domain.ObjectStore

	Broker   *queue.Broker
	Engine   *queue.Engine
	Reaper   *queue.Reaper
	Workers  *queue.Pool
	Events   *webhook.EventBus
	Dispatch *webhook.Dispatcher

	Services Services
	Server   *httpapi.Server
}

// Config is a type alias so call sites read app.Config instead of
// config.Config; Wire takes the real config.Config.
type Config = config.Config

// Wire constructs every dependency: Postgres pool, Redis client, the nine
// repositories, the object store, three task-scoped LLM adapters, the
// queue engine/broker/reaper, the version service, the webhook event bus
// and dispatcher, the four registered job processors, and the six §6
// services — everything cmd/server and cmd/worker need, so both binaries
// (and the combined RUN_MODE=all process) build their runtime from this
// one call.
func Wire(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("app: connect postgres: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("app: parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)

	repos := NewRepos(pool)

	objStore, err := objectstore.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: build object store: %w", err)
	}

	broker := queue.NewBroker(rdb, cfg.JobTimeout)

	events, err := webhook.NewEventBus(cfg.KafkaBrokers)
	if err != nil {
		return nil, fmt.Errorf("app: connect event bus: %w", err)
	}

	engine := queue.NewEngine(repos.Jobs, broker, events, cfg)
	reaper := queue.NewReaper(engine, broker, cfg.WorkerPollInterval*6)

	versionSvc := version.New(repos.Versions, repos.CVs)

	baseAI := llm.New(cfg)
	procs := processor.Processors{
		CVs:         repos.CVs,
		Users:       repos.Users,
		Versions:    versionSvc,
		VersionRepo: repos.Versions,
		Parsing:     repos.Parsing,
		ATSRepo:     repos.ATS,
		Generations: repos.Generations,
		Objects:     objStore,
		Extractor:   extractor(cfg),
		Rasterizer:  browser.New(cfg.ChromeWSURL, cfg.ChromeRenderTimeout),
		ParseAI:     baseAI.WithTask("parse"),
		OptimizeAI:  baseAI.WithTask("optimize"),
		ATSAI:       baseAI.WithTask("ats"),
	}

	dispatcher := webhook.NewDispatcher(repos.Webhooks, repos.Deliveries, engine)

	workers := queue.NewPool(engine, cfg)
	workers.Register(domain.QueueParsing, procs.Parsing)
	workers.Register(domain.QueueOptimization, procs.Optimization)
	workers.Register(domain.QueueATS, procs.ATS)
	workers.Register(domain.QueueGeneration, procs.Generation)
	workers.Register(domain.QueueWebhookDelivery, dispatcher.Deliver)

	services := Services{
		Parsing:    service.NewParsingService(repos.CVs, repos.Users, repos.Jobs, repos.Parsing, engine),
		Optimize:   service.NewOptimizeService(repos.CVs, repos.Users, engine),
		ATS:        service.NewATSService(repos.CVs, repos.Users, repos.Jobs, repos.ATS, engine),
		Generation: service.NewGenerationService(repos.CVs, repos.Users, repos.Jobs, repos.Generations, objStore, engine),
		Jobs:       service.NewJobService(repos.Jobs, engine),
		Webhooks:   service.NewWebhookService(repos.Webhooks, repos.Deliveries, dispatcher),
	}

	checks := ReadinessChecks(cfg, pool, rdb)
	srv := httpapi.NewServer(cfg, repos.CVs, objStore,
		services.Parsing, services.Optimize, services.ATS, services.Generation, services.Jobs, services.Webhooks,
		checks)

	return &App{
		Cfg: cfg, Pool: pool, Redis: rdb, Repos: repos, Object: objStore,
		Broker: broker, Engine: engine, Reaper: reaper, Workers: workers,
		Events: events, Dispatch: dispatcher,
		Services: services, Server: srv,
	}, nil
}

// extractor builds the Tika-backed extractor from TIKA_URL. It reads .txt
// and empty files directly and sends every other file to Tika; an empty
// TIKA_URL targets http://localhost:9998, and there is no fallback when
// Tika is unreachable.
func extractor(cfg config.Config) domain.TextExtractor {
	return extract.NewTikaExtractor(cfg.TikaURL)
}

// Close releases every long-lived connection Wire opened.
func (a *App) Close() {
	if a.Events != nil {
		a.Events.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
