package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/go-rental-marketplace/config"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	mongoDB     *mongo.Database
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetMongo(db *mongo.Database)   { mongoDB = db }
func GetMongo() *mongo.Database     { return mongoDB }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *storage.Client)      { gcsClient = s }
func GetGCS() *storage.Client       { return gcsClient }
func SetJWT(m *helpers.JWTManager)  { jwtManager = m }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }

// GetJWT falls back to a manager built from config
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil && cfg != nil {
		jwtManager = helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	}
	return jwtManager
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

// GetCookies builds the session cookie writer from config
func GetCookies() *helpers.Manager {
	return helpers.NewCookie(cfg.CookieName, cfg.CookieDomain, cfg.IsProduction(), cfg.CookieMaxAge)
}
