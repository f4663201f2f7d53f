package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	api "github.com/rpupo63/foodgram-backend/api"
	"github.com/rpupo63/foodgram-backend/config"
	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rpupo63/foodgram-backend/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)
	log.Info().Msg("Initializing app...")

	if path := config.GetString(c, "SSM_PARAMETER_PATH", ""); path != "" {
		if err := loadParameters(c, path); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Error loading parameters from SSM")
		}
	}

	gormLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  config.GetString(c, "LOG_FORMAT", "") == "console",
		},
	)

	driver := config.GetString(c, "DB_DRIVER", database.DriverPostgres)
	log.Info().Str("driver", driver).Msg("Connecting to database...")
	db, err := database.Open(database.Options{
		Driver:          driver,
		URL:             config.GetString(c, "DATABASE_URL", ""),
		ReplicaURLs:     config.GetList(c, "DB_REPLICA_URLS"),
		MaxOpenConns:    config.GetInt(c, "DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    config.GetInt(c, "DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: config.GetDuration(c, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
		Logger:          gormLogger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	currentDB := database.New(db)
	defer currentDB.Close()

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		log.Info().Msg("Generating column mismatch report...")
		printColumnReport(currentDB)
		return
	}

	if config.GetBool(c, "AUTO_MIGRATE", true) {
		if err := currentDB.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Error migrating schema")
		}
	}

	images, err := newImageStore(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring image store")
	}

	// Buffered so the server goroutine can report ErrServerClosed after shutdown
	errChannel := make(chan error, 2)

	server, err := api.NewServer(currentDB, c, images)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger
func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetString(c, "LOG_FORMAT", "") == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func loadParameters(c map[string]string, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(c, "AWS_REGION", "us-east-1")))
	if err != nil {
		return err
	}
	loaded, err := config.LoadSSM(ctx, ssm.NewFromConfig(awsCfg), path, c)
	if err != nil {
		return err
	}
	log.Info().Int("parameters", loaded).Str("path", path).Msg("Loaded parameters from SSM")
	return nil
}

func newImageStore(c map[string]string) (services.ImageStore, error) {
	switch backend := config.GetString(c, "MEDIA_BACKEND", "local"); backend {
	case "local":
		return services.NewLocalImageStore(
			config.GetString(c, "MEDIA_ROOT", "media"),
			config.GetString(c, "MEDIA_URL", "/media/"),
		), nil
	case "s3":
		bucket := config.GetString(c, "S3_BUCKET", "")
		if bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET must be set when MEDIA_BACKEND=s3")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(c, "S3_REGION", "us-east-1")))
		if err != nil {
			return nil, err
		}
		return services.NewS3ImageStore(s3.NewFromConfig(awsCfg), bucket, config.GetString(c, "S3_PUBLIC_URL", "")), nil
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", backend)
	}
}

func printColumnReport(db database.Database) {
	report, err := models.ColumnMismatchReport(db.GormDB())
	if err != nil {
		log.Error().Err(err).Msg("Error generating column report")
		return
	}
	if len(report) == 0 {
		fmt.Println("No column mismatches found.")
		return
	}

	tables := make([]string, 0, len(report))
	for table := range report {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Printf("%s: %s\n", table, strings.Join(report[table], ", "))
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
