package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"souq/internal/auth"
	"souq/internal/catalog"
	"souq/internal/db"
	"souq/internal/mailer"
	"souq/internal/media"
	"souq/internal/ratelimiter"
	"souq/internal/store"
)

var version = "1.0.0"

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	return zap.New(core).Sugar(), nil
}

// mongoStatus reports database reachability for the debug vars endpoint.
func mongoStatus(client *mongo.Client) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return "down"
	}
	return "up"
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	maxPoolSize := uint64(100)
	if val, exists := os.LookupEnv("DB_MAX_POOL_SIZE"); exists {
		parsed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			log.Fatalf("Invalid value for DB_MAX_POOL_SIZE: %v", err)
		}
		maxPoolSize = parsed
	}

	mailPort := 587
	if val, exists := os.LookupEnv("MAIL_PORT"); exists {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("Invalid value for MAIL_PORT: %v", err)
		}
		mailPort = parsed
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			name:        os.Getenv("DB_NAME"),
			maxPoolSize: maxPoolSize,
			timeout:     30 * time.Second,
		},
		media: mediaConfig{
			cloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			uploadsFolder: os.Getenv("UPLOADS_FOLDER"),
			customIDSalt:  os.Getenv("CUSTOM_ID_SALT"),
		},
		mail: mailConfig{
			host:       os.Getenv("MAIL_HOST"),
			port:       mailPort,
			username:   os.Getenv("MAIL_USERNAME"),
			password:   os.Getenv("MAIL_PASSWORD"),
			fromEmail:  os.Getenv("MAIL_FROM_EMAIL"),
			alertEmail: os.Getenv("MAIL_ALERT_EMAIL"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:          os.Getenv("AUTH_TOKEN_SECRET"),
				refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				accessTokenExp:  time.Hour * 24 * 3,
				refreshTokenExp: time.Hour * 24 * 9,
				iss:             "Souq",
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	client, err := db.New(cfg.db.addr, cfg.db.maxPoolSize, cfg.db.timeout)
	if err != nil {
		logger.Fatal(err)
	}
	defer client.Disconnect(context.Background())
	logger.Info("database connection pool established")

	storage := store.NewStorage(client, client.Database(cfg.db.name))

	cld, err := cloudinary.NewFromURL(cfg.media.cloudinaryURL)
	if err != nil {
		logger.Fatalw("failed to initialize Cloudinary", "error", err)
	}

	mediaManager := media.NewManager(media.NewCloudinaryStore(cld))
	pathResolver := catalog.NewPathResolver(cfg.media.uploadsFolder)

	idGenerator, err := catalog.NewCustomIDGenerator(cfg.media.customIDSalt)
	if err != nil {
		logger.Fatalw("failed to initialize custom id generator", "error", err)
	}

	engine := catalog.NewEngine(storage, mediaManager, pathResolver, idGenerator, logger)

	mailClient := mailer.NewSMTP(
		cfg.mail.host,
		cfg.mail.port,
		cfg.mail.username,
		cfg.mail.password,
		cfg.mail.fromEmail,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		"souq",
		cfg.auth.token.iss,
		cfg.auth.token.accessTokenExp,
		cfg.auth.token.refreshTokenExp,
	)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:        cfg,
		store:         storage,
		engine:        engine,
		logger:        logger,
		mailer:        mailClient,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("mongo", expvar.Func(func() any {
		return mongoStatus(client)
	}))

	mux := app.mount()
	logger.Fatal(app.run(mux))
}
