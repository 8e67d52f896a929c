package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/brevo"
	"github.com/fathima-sithara/contacts-api/internal/cache"
	"github.com/fathima-sithara/contacts-api/internal/config"
	"github.com/fathima-sithara/contacts-api/internal/database"
	"github.com/fathima-sithara/contacts-api/internal/events"
	"github.com/fathima-sithara/contacts-api/internal/handlers"
	"github.com/fathima-sithara/contacts-api/internal/middleware"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"github.com/fathima-sithara/contacts-api/internal/routes"
	"github.com/fathima-sithara/contacts-api/internal/services"
	"github.com/fathima-sithara/contacts-api/internal/storage"
	"github.com/fathima-sithara/contacts-api/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AppContext holds the wired application graph.
type AppContext struct {
	Config *config.Config
	Logger *zap.Logger

	MongoClient *mongo.Client
	Redis       *redis.Client
	Events      *events.Publisher

	AuthService services.AuthService

	RouteDeps routes.Deps
}

type CleanupFn func(ctx context.Context)

// Init connects the backing services and wires repositories, services,
// middleware and handlers. Redis is optional: without it the session cache
// falls back to an in-process map and rate limiting is disabled.
func Init(cfg *config.Config, logger *zap.Logger) (*AppContext, CleanupFn, error) {
	ctx := context.Background()

	db, mongoClient, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.MongoDialTimeout(), logger)
	if err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	var userCache cache.UserCache
	if cfg.Redis.Addr != "" {
		rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RedisDialTimeout(), logger)
		if err != nil {
			return nil, nil, err
		}
		userCache = cache.NewRedisUserCache(rdb, cfg.UserCacheTTL())
	} else {
		logger.Warn("redis not configured, using in-process session cache")
		userCache = cache.NewMemoryUserCache(cfg.UserCacheTTL())
	}

	userRepo := repository.NewMongoUserRepo(db, cfg.Mongo.UsersCollection)
	contactRepo := repository.NewMongoContactRepo(db, cfg.Mongo.ContactsCollection)

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.AccessTTL(), cfg.RefreshTTL(), cfg.EmailTTL())
	mail := brevo.NewClient(cfg.Brevo.APIKey, cfg.Brevo.FromEmail, cfg.Brevo.FromName)
	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	avatars, err := newAvatarStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	authSvc := services.NewAuthService(userRepo, userCache, tokens, mail, publisher, logger, cfg.Security.PasswordHashCost, cfg.App.BaseURL)
	contactSvc := services.NewContactService(contactRepo)
	userSvc := services.NewUserService(userRepo, avatars, logger)

	meLimiter := middleware.NewRateLimiter(rdb, "rl:me",
		cfg.Security.RateLimitRequestsPerWin, time.Duration(cfg.Security.MeRateLimitSeconds)*time.Second)
	avatarLimiter := middleware.NewRateLimiter(rdb, "rl:avatar",
		cfg.Security.RateLimitRequestsPerWin, time.Duration(cfg.Security.AvatarRateLimitSeconds)*time.Second)

	appCtx := &AppContext{
		Config:      cfg,
		Logger:      logger,
		MongoClient: mongoClient,
		Redis:       rdb,
		Events:      publisher,
		AuthService: authSvc,
		RouteDeps: routes.Deps{
			Auth:          handlers.NewAuthHandler(authSvc, logger),
			Contacts:      handlers.NewContactHandler(contactSvc, logger),
			Users:         handlers.NewUserHandler(userSvc, logger),
			RequireAuth:   middleware.RequireAuth(authSvc),
			MeLimiter:     meLimiter.PerUser(),
			AvatarLimiter: avatarLimiter.PerUser(),
		},
	}

	cleanup := func(ctx context.Context) {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close failed", zap.Error(err))
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				logger.Error("redis close failed", zap.Error(err))
			}
		}
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error("mongo disconnect failed", zap.Error(err))
		}
	}

	return appCtx, cleanup, nil
}

func newAvatarStore(cfg *config.Config, logger *zap.Logger) (services.AvatarStore, error) {
	if cfg.AWS.Bucket == "" {
		logger.Warn("s3 bucket not configured, avatar uploads disabled")
		return disabledAvatarStore{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return storage.NewS3Store(ctx, cfg.AWS.Region, cfg.AWS.Bucket)
}

type disabledAvatarStore struct{}

func (disabledAvatarStore) Upload(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("avatar storage not configured")
}
