package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

type config struct {
	port    int
	env     string
	baseURL string
	store   string
	db      struct {
		dsn                string
		migrationsDir      string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	sqliteFile string
	smtp       struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	jwt struct {
		secret     string
		accessTTL  time.Duration
		refreshTTL time.Duration
	}
	requireVerification bool
	cors                struct {
		trustedOrigins []string
	}
	verboseLogging bool
}

type application struct {
	config config
	store  store
	mailer *mailer
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal(err)
	}

	var cfg config
	flag.IntVar(&cfg.port, "port", envInt("PORT", 5000), "Server port")
	flag.StringVar(&cfg.env, "env", envString("ENV", "development"), "Environment [development|production]")
	flag.StringVar(&cfg.baseURL, "base-url", envString("BASE_URL", "http://localhost:5000"), "Public base URL used in verification links")

	flag.StringVar(&cfg.store, "store", envString("STORE", "postgres"), "Store adapter [postgres|sqlite|memory]")
	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.StringVar(&cfg.db.migrationsDir, "db-migrations", envString("DB_MIGRATIONS", "./migrations"), "PostgreSQL migrations directory")
	flag.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	var maxIdleTime string
	flag.StringVar(&maxIdleTime, "db-max-idle-time", "15m", "PostgreSQL max connection idle time")
	flag.StringVar(&cfg.sqliteFile, "sqlite-file", envString("SQLITE_FILE", "./data/todos.db"), "SQLite database file")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", envInt("SMTP_PORT", 25), "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", os.Getenv("SMTP_SENDER"), "SMTP sender")

	flag.StringVar(&cfg.jwt.secret, "jwt-secret", os.Getenv("JWT_SECRET"), "JWT secret")
	var accessTTL, refreshTTL string
	flag.StringVar(&accessTTL, "jwt-expires-in", envString("JWT_EXPIRES_IN", "1d"), "Access token lifetime")
	flag.StringVar(&refreshTTL, "jwt-refresh-expires-in", envString("JWT_REFRESH_EXPIRES_IN", "7d"), "Refresh token lifetime")

	flag.BoolVar(&cfg.requireVerification, "require-verification", os.Getenv("REQUIRE_VERIFICATION") == "true", "Require email verification before login")
	var corsOrigins string
	flag.StringVar(&corsOrigins, "cors-trusted-origins", os.Getenv("CORS_ORIGINS"), "Trusted CORS origins (space separated)")
	flag.BoolVar(&cfg.verboseLogging, "verbose", os.Getenv("VERBOSE") == "true", "Log every request")
	flag.Parse()

	cfg.cors.trustedOrigins = strings.Fields(corsOrigins)

	d, err := time.ParseDuration(maxIdleTime)
	if err != nil {
		cfg.db.maxIdleTime = 15 * time.Minute
		log.Printf(`invalid value %s for flag "db-max-idle-time" defaulting to %s`, maxIdleTime, cfg.db.maxIdleTime)
	} else {
		cfg.db.maxIdleTime = d
	}

	cfg.jwt.accessTTL, err = parseTTL(accessTTL)
	if err != nil {
		log.Fatalf("invalid access token lifetime %q: %v", accessTTL, err)
	}
	cfg.jwt.refreshTTL, err = parseTTL(refreshTTL)
	if err != nil {
		log.Fatalf("invalid refresh token lifetime %q: %v", refreshTTL, err)
	}

	// The signing secret must survive restarts in production or every issued
	// token dies with the process.
	if cfg.jwt.secret == "" {
		if cfg.env == "production" {
			log.Fatal("JWT_SECRET must be set in production")
		}
		secret := make([]byte, 32)
		_, err = rand.Read(secret)
		if err != nil {
			log.Fatal(err)
		}
		cfg.jwt.secret = string(secret)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("using %s store", cfg.store)

	app := &application{
		config: cfg,
		store:  st,
	}
	if cfg.smtp.host != "" {
		app.mailer = newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	} else if cfg.requireVerification {
		log.Println("warning: email verification is required but smtp is not configured")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("Starting %s server on port %d\n", cfg.env, cfg.port)
	err = srv.ListenAndServe()
	log.Fatal(err)
}

func openStore(cfg config) (store, error) {
	switch cfg.store {
	case "postgres":
		if err := applyMigrations(cfg.db.migrationsDir, cfg.db.dsn); err != nil {
			return nil, err
		}
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		log.Println("established a connection with database")
		return newPostgresStore(db), nil
	case "sqlite":
		return newSQLiteStore(cfg.sqliteFile)
	case "memory":
		return newMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store adapter %q (supported: postgres, sqlite, memory)", cfg.store)
	}
}

// parseTTL accepts Go duration strings plus the day suffix the original
// JWT_EXPIRES_IN values use ("1d", "7d").
func parseTTL(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid value %s for %s", v, key)
	}
	return n
}
