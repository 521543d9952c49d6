package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkade-os/tgpay/internal/core/application"
	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	alertsmanager "github.com/arkade-os/tgpay/internal/infrastructure/alertsmanager"
	telegramchat "github.com/arkade-os/tgpay/internal/infrastructure/chat/telegram"
	inmemorycursorstore "github.com/arkade-os/tgpay/internal/infrastructure/cursor-store/inmemory"
	rediscursorstore "github.com/arkade-os/tgpay/internal/infrastructure/cursor-store/redis"
	"github.com/arkade-os/tgpay/internal/infrastructure/db"
	pgdb "github.com/arkade-os/tgpay/internal/infrastructure/db/postgres"
	watermillbus "github.com/arkade-os/tgpay/internal/infrastructure/events/watermill"
	httpmanager "github.com/arkade-os/tgpay/internal/infrastructure/manager/http"
	schnorrmanager "github.com/arkade-os/tgpay/internal/infrastructure/manager/schnorr"
	timescheduler "github.com/arkade-os/tgpay/internal/infrastructure/scheduler/gocron"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const eventsConsumerGroup = "reporter"

var (
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
	}
	supportedCursorStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
	supportedEventBuses = supportedType{
		"inmemory": {},
		"postgres": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedAuthModes = supportedType{
		string(domain.AuthModeAdmin):   {},
		string(domain.AuthModeManager): {},
	}
	supportedManagers = supportedType{
		"schnorr": {},
		"http":    {},
	}
)

type Config struct {
	Datadir  string
	LogLevel int

	DbType              string
	DbDir               string
	DbUrl               string
	CursorStoreType     string
	RedisUrl            string
	RedisTxNumOfRetries int
	EventBusType        string
	EventDbUrl          string
	SchedulerType       string
	PollInterval        time.Duration

	BotToken  string
	BotApiUrl string
	GroupId   int64
	GroupLink string

	LedgerAddress  string
	AddressPrefix  string
	AllowedDenoms  []string
	AuthMode       string
	AdminAddress   string
	ManagerAddress string

	ManagerType      string
	ManagerUrl       string
	OperatorPubkeys  []string
	ManagerThreshold int
	OperatorPrivkey  string
	SenderAddress    string

	ReporterEnabled bool
	AlertManagerURL string

	repo        ports.RepoManager
	cursorStore ports.CursorStore
	chat        ports.ChatClient
	eventBus    ports.EventBus
	scheduler   ports.SchedulerService
	manager     ports.ManagerService
	signer      ports.EnvelopeSigner
	alerts      ports.Alerts
	ledgerSvc   application.LedgerService
	cursorSvc   application.CursorService
	operatorSvc application.OperatorService
	reporterSvc application.ReporterService
}

func (c *Config) String() string {
	clone := *c
	if clone.BotToken != "" {
		clone.BotToken = "••••••"
	}
	if clone.OperatorPrivkey != "" {
		clone.OperatorPrivkey = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir             = btcutil.AppDataDir("tgpay", false)
	defaultLogLevel            = 4
	defaultDbType              = "badger"
	defaultCursorStoreType     = "redis"
	defaultRedisTxNumOfRetries = 10
	defaultEventBusType        = "inmemory"
	defaultSchedulerType       = "gocron"
	defaultPollInterval        = 1 // seconds
	defaultAddressPrefix       = "layer"
	defaultAuthMode            = string(domain.AuthModeAdmin)
	defaultManagerType         = "schnorr"
	defaultManagerThreshold    = 1
	defaultReporterEnabled     = true
)

// env returns a list of strings prefixed with `TGPAY_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("TGPAY_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	DbType = &cli.StringFlag{
		Usage: "Ledger database type (badger, sqlite, postgres)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if TGPAY_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	CursorStoreType = &cli.StringFlag{
		Usage: "Cursor store type (redis, inmemory)",
		Name:  "cursor-store-type", EnvVars: env("CURSOR_STORE_TYPE"),
		Value: defaultCursorStoreType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis db connection url if TGPAY_CURSOR_STORE_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisTxNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of retries for Redis write operations in case of conflicts",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisTxNumOfRetries,
	}

	EventBusType = &cli.StringFlag{
		Usage: "Ledger event bus type (inmemory, postgres)",
		Name:  "event-bus-type", EnvVars: env("EVENT_BUS_TYPE"),
		Value: defaultEventBusType,
	}

	EventDbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if TGPAY_EVENT_BUS_TYPE is set to postgres",
		Name:  "pg-event-db-url", EnvVars: env("PG_EVENT_DB_URL"),
	}

	SchedulerType = &cli.StringFlag{
		Usage: "Scheduler type (gocron)",
		Name:  "scheduler-type", EnvVars: env("SCHEDULER_TYPE"),
		Value: defaultSchedulerType,
	}

	// TODO: Make this a cli.DurationFlag.
	PollInterval = &cli.IntFlag{
		Usage: "Interval in seconds between two cursor cycles",
		Name:  "poll-interval", EnvVars: env("POLL_INTERVAL"),
		Value: defaultPollInterval,
	}

	BotToken = &cli.StringFlag{
		Usage: "Telegram bot token",
		Name:  "bot-token", EnvVars: env("BOT_TOKEN"),
	}

	BotApiUrl = &cli.StringFlag{
		Usage: "Telegram Bot API server url, defaults to the public one",
		Name:  "bot-api-url", EnvVars: env("BOT_API_URL"),
	}

	GroupId = &cli.Int64Flag{
		Usage: "Id of the group notified of ledger activity",
		Name:  "group-id", EnvVars: env("GROUP_ID"),
	}

	GroupLink = &cli.StringFlag{
		Usage: "Invite link of the payments group shown by /start",
		Name:  "group-link", EnvVars: env("GROUP_LINK"),
	}

	LedgerAddress = &cli.StringFlag{
		Usage: "Chain address of the ledger account, holding escrowed payments",
		Name:  "ledger-address", EnvVars: env("LEDGER_ADDRESS"),
	}

	AddressPrefix = &cli.StringFlag{
		Usage: "Bech32 human readable part of chain addresses",
		Name:  "address-prefix", EnvVars: env("ADDRESS_PREFIX"),
		Value: defaultAddressPrefix,
	}

	AllowedDenoms = &cli.StringSliceFlag{
		Usage: "Whitelisted token denominations (comma-separated)",
		Name:  "allowed-denoms", EnvVars: env("ALLOWED_DENOMS"),
	}

	AuthMode = &cli.StringFlag{
		Usage: "Ledger authorization mode (admin, manager)",
		Name:  "auth-mode", EnvVars: env("AUTH_MODE"),
		Value: defaultAuthMode,
	}

	AdminAddress = &cli.StringFlag{
		Usage: "Admin address if TGPAY_AUTH_MODE is set to admin",
		Name:  "admin-address", EnvVars: env("ADMIN_ADDRESS"),
	}

	ManagerAddress = &cli.StringFlag{
		Usage: "Manager service address if TGPAY_AUTH_MODE is set to manager",
		Name:  "manager-address", EnvVars: env("MANAGER_ADDRESS"),
	}

	ManagerType = &cli.StringFlag{
		Usage: "Manager service type (schnorr, http)",
		Name:  "manager-type", EnvVars: env("MANAGER_TYPE"),
		Value: defaultManagerType,
	}

	ManagerUrl = &cli.StringFlag{
		Usage: "Remote manager url if TGPAY_MANAGER_TYPE is set to http",
		Name:  "manager-url", EnvVars: env("MANAGER_URL"),
	}

	OperatorPubkeys = &cli.StringSliceFlag{
		Usage: "Hex x-only pubkeys of the operators (comma-separated)",
		Name:  "operator-pubkeys", EnvVars: env("OPERATOR_PUBKEYS"),
	}

	ManagerThreshold = &cli.IntFlag{
		Usage: "Number of operator signatures required by the schnorr manager, only 1 is supported",
		Name:  "manager-threshold", EnvVars: env("MANAGER_THRESHOLD"),
		Value: defaultManagerThreshold,
	}

	OperatorPrivkey = &cli.StringFlag{
		Usage: "Hex private key signing envelopes if TGPAY_AUTH_MODE is set to manager",
		Name:  "operator-privkey", EnvVars: env("OPERATOR_PRIVKEY"),
	}

	SenderAddress = &cli.StringFlag{
		Usage:       "Address submitting operations if TGPAY_AUTH_MODE is set to admin",
		Name:        "sender-address", EnvVars: env("SENDER_ADDRESS"),
		DefaultText: "value of `TGPAY_ADMIN_ADDRESS`",
	}

	ReporterEnabled = &cli.BoolFlag{
		Usage: "Enable notifications of ledger activity",
		Name:  "reporter-enabled", EnvVars: env("REPORTER_ENABLED"),
		Value: defaultReporterEnabled,
	}

	AlertManagerURL = &cli.StringFlag{
		Usage: "Prometheus Alertmanager URL receiving registration and payment alerts",
		Name:  "alert-manager-url", EnvVars: env("ALERT_MANAGER_URL"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	LogLevel,
	DbType,
	DbUrl,
	CursorStoreType,
	RedisUrl,
	RedisTxNumOfRetries,
	EventBusType,
	EventDbUrl,
	SchedulerType,
	PollInterval,
	BotToken,
	BotApiUrl,
	GroupId,
	GroupLink,
	LedgerAddress,
	AddressPrefix,
	AllowedDenoms,
	AuthMode,
	AdminAddress,
	ManagerAddress,
	ManagerType,
	ManagerUrl,
	OperatorPubkeys,
	ManagerThreshold,
	OperatorPrivkey,
	SenderAddress,
	ReporterEnabled,
	AlertManagerURL,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl string
	if c.String(CursorStoreType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("cursor store type set to 'redis' but redis url is missing")
		}
	}

	var eventDbUrl string
	if c.String(EventBusType.Name) == "postgres" {
		eventDbUrl = c.String(EventDbUrl.Name)
		if eventDbUrl == "" {
			return nil, fmt.Errorf("event bus type set to 'postgres' but event db url is missing")
		}
	}

	senderAddr := c.String(SenderAddress.Name)
	if senderAddr == "" {
		senderAddr = c.String(AdminAddress.Name)
	}

	return &Config{
		Datadir:             c.String(Datadir.Name),
		LogLevel:            c.Int(LogLevel.Name),
		DbType:              c.String(DbType.Name),
		DbDir:               dbPath,
		DbUrl:               dbUrl,
		CursorStoreType:     c.String(CursorStoreType.Name),
		RedisUrl:            redisUrl,
		RedisTxNumOfRetries: c.Int(RedisTxNumOfRetries.Name),
		EventBusType:        c.String(EventBusType.Name),
		EventDbUrl:          eventDbUrl,
		SchedulerType:       c.String(SchedulerType.Name),
		PollInterval:        time.Duration(c.Int(PollInterval.Name)) * time.Second,
		BotToken:            c.String(BotToken.Name),
		BotApiUrl:           c.String(BotApiUrl.Name),
		GroupId:             c.Int64(GroupId.Name),
		GroupLink:           c.String(GroupLink.Name),
		LedgerAddress:       c.String(LedgerAddress.Name),
		AddressPrefix:       c.String(AddressPrefix.Name),
		AllowedDenoms:       c.StringSlice(AllowedDenoms.Name),
		AuthMode:            c.String(AuthMode.Name),
		AdminAddress:        c.String(AdminAddress.Name),
		ManagerAddress:      c.String(ManagerAddress.Name),
		ManagerType:         c.String(ManagerType.Name),
		ManagerUrl:          c.String(ManagerUrl.Name),
		OperatorPubkeys:     c.StringSlice(OperatorPubkeys.Name),
		ManagerThreshold:    c.Int(ManagerThreshold.Name),
		OperatorPrivkey:     c.String(OperatorPrivkey.Name),
		SenderAddress:       senderAddr,
		ReporterEnabled:     c.Bool(ReporterEnabled.Name),
		AlertManagerURL:     c.String(AlertManagerURL.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

// Validate checks the settings. Services are built lazily by their accessors so that
// commands only open what they need, the ledger parameters are checked when the ledger is
// initialized.
func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedCursorStores.supports(c.CursorStoreType) {
		return fmt.Errorf(
			"cursor store type not supported, please select one of: %s",
			supportedCursorStores,
		)
	}
	if !supportedEventBuses.supports(c.EventBusType) {
		return fmt.Errorf(
			"event bus type not supported, please select one of: %s", supportedEventBuses,
		)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf(
			"scheduler type not supported, please select one of: %s",
			supportedSchedulers,
		)
	}
	if !supportedAuthModes.supports(c.AuthMode) {
		return fmt.Errorf(
			"auth mode not supported, please select one of: %s", supportedAuthModes,
		)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval, must be at least 1 second")
	}

	if len(c.GroupLink) > 0 && !strings.HasPrefix(c.GroupLink, "https://") {
		return fmt.Errorf("invalid group link, must be an https url")
	}

	switch domain.AuthMode(c.AuthMode) {
	case domain.AuthModeAdmin:
		if len(c.SenderAddress) > 0 {
			if err := domain.ValidateAddress(c.SenderAddress, c.AddressPrefix); err != nil {
				return fmt.Errorf("invalid sender address: %s", err)
			}
		}
	case domain.AuthModeManager:
		if !supportedManagers.supports(c.ManagerType) {
			return fmt.Errorf(
				"manager type not supported, please select one of: %s", supportedManagers,
			)
		}
		if c.ManagerType == "http" && c.ManagerUrl == "" {
			return fmt.Errorf("manager type set to 'http' but manager url is missing")
		}
		if c.ManagerType == "schnorr" {
			if len(c.OperatorPubkeys) <= 0 {
				return fmt.Errorf("manager type set to 'schnorr' but operator pubkeys are missing")
			}
			// Every operator submits the envelopes it signed on its own, nothing gathers
			// the attestations of the others.
			if c.ManagerThreshold != 1 {
				return fmt.Errorf(
					"invalid manager threshold %d, operators attest envelopes alone so it must be 1",
					c.ManagerThreshold,
				)
			}
		}
	}
	return nil
}

func (c *Config) LedgerConfig() domain.LedgerConfig {
	authAddr := c.AdminAddress
	if domain.AuthMode(c.AuthMode) == domain.AuthModeManager {
		authAddr = c.ManagerAddress
	}
	return domain.LedgerConfig{
		Address:       c.LedgerAddress,
		AddressPrefix: c.AddressPrefix,
		AllowedDenoms: c.AllowedDenoms,
		Auth: domain.AuthRoot{
			Mode:    domain.AuthMode(c.AuthMode),
			Address: authAddr,
		},
	}
}

func (c *Config) LedgerService() (application.LedgerService, error) {
	if c.ledgerSvc == nil {
		if err := c.ledgerService(); err != nil {
			return nil, err
		}
	}
	return c.ledgerSvc, nil
}

// OpenLedgerService serves a ledger that was already initialized, without building the event
// bus. Unlike LedgerService it never stores the ledger parameters set by flags.
func (c *Config) OpenLedgerService() (application.LedgerService, error) {
	if c.ledgerSvc != nil {
		return c.ledgerSvc, nil
	}
	if c.repo == nil {
		if err := c.repoManager(); err != nil {
			return nil, err
		}
	}
	if err := c.managerService(); err != nil {
		return nil, err
	}

	svc, err := application.OpenLedgerService(
		context.Background(), c.repo.Ledger(), c.manager, nil,
	)
	if err != nil {
		return nil, err
	}

	c.ledgerSvc = svc
	return svc, nil
}

func (c *Config) CursorService() (application.CursorService, error) {
	if c.cursorSvc == nil {
		if err := c.cursorService(); err != nil {
			return nil, err
		}
	}
	return c.cursorSvc, nil
}

func (c *Config) OperatorService() (application.OperatorService, error) {
	if c.operatorSvc == nil {
		if err := c.operatorService(); err != nil {
			return nil, err
		}
	}
	return c.operatorSvc, nil
}

// ReporterService returns nil if the reporter is disabled.
func (c *Config) ReporterService() (application.ReporterService, error) {
	if c.reporterSvc == nil && c.ReporterEnabled {
		if err := c.reporterService(); err != nil {
			return nil, err
		}
	}
	return c.reporterSvc, nil
}

// Close releases every service opened so far.
func (c *Config) Close() {
	if c.ledgerSvc != nil {
		c.ledgerSvc.Close()
	} else if c.repo != nil {
		c.repo.Close()
	}
	if c.cursorStore != nil {
		c.cursorStore.Close()
	}
	if c.eventBus != nil {
		if err := c.eventBus.Close(); err != nil {
			log.WithError(err).Warn("failed to close event bus")
		}
	}
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, true}
	default:
		return fmt.Errorf("unknown db type")
	}

	if c.DbType != "postgres" {
		if err := makeDirectoryIfNotExists(c.DbDir); err != nil {
			return fmt.Errorf("failed to create db dir: %s", err)
		}
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) cursorStoreService() error {
	var store ports.CursorStore
	switch c.CursorStoreType {
	case "inmemory":
		store = inmemorycursorstore.NewCursorStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		store = rediscursorstore.NewCursorStore(rdb, c.RedisTxNumOfRetries)
	default:
		return fmt.Errorf("unknown cursor store type")
	}

	c.cursorStore = store
	return nil
}

func (c *Config) chatClient() error {
	if c.BotToken == "" {
		return fmt.Errorf("missing bot token")
	}

	opts := make([]telegramchat.Option, 0)
	if c.BotApiUrl != "" {
		opts = append(opts, telegramchat.WithAPIServer(c.BotApiUrl))
	}
	client, err := telegramchat.NewClient(c.BotToken, opts...)
	if err != nil {
		return err
	}

	c.chat = client
	return nil
}

func (c *Config) eventBusService() error {
	switch c.EventBusType {
	case "inmemory":
		c.eventBus = watermillbus.NewEventBus()
	case "postgres":
		db, err := pgdb.OpenDb(c.EventDbUrl, true)
		if err != nil {
			return fmt.Errorf("failed to open event db: %s", err)
		}
		bus, err := watermillbus.NewPostgresEventBus(db, eventsConsumerGroup)
		if err != nil {
			return err
		}
		c.eventBus = bus
	default:
		return fmt.Errorf("unknown event bus type")
	}
	return nil
}

func (c *Config) schedulerService() error {
	switch c.SchedulerType {
	case "gocron":
		c.scheduler = timescheduler.NewScheduler()
	default:
		return fmt.Errorf("unknown scheduler type")
	}
	return nil
}

func (c *Config) managerService() error {
	if domain.AuthMode(c.AuthMode) != domain.AuthModeManager {
		return nil
	}

	var svc ports.ManagerService
	var err error
	switch c.ManagerType {
	case "schnorr":
		svc, err = schnorrmanager.NewVerifier(c.OperatorPubkeys, c.ManagerThreshold)
	case "http":
		svc, err = httpmanager.NewClient(c.ManagerUrl)
	default:
		err = fmt.Errorf("unknown manager type")
	}
	if err != nil {
		return err
	}

	c.manager = svc
	return nil
}

func (c *Config) signerService() error {
	if domain.AuthMode(c.AuthMode) != domain.AuthModeManager {
		return nil
	}
	if c.OperatorPrivkey == "" {
		return fmt.Errorf("auth mode set to 'manager' but operator private key is missing")
	}

	signer, err := schnorrmanager.NewSigner(c.OperatorPrivkey)
	if err != nil {
		return err
	}
	log.Infof("operator pubkey: %s", signer.PubKey())

	c.signer = signer
	return nil
}

func (c *Config) alertsService() error {
	if c.AlertManagerURL == "" {
		return nil
	}

	c.alerts = alertsmanager.NewService(c.AlertManagerURL)
	return nil
}

func (c *Config) ledgerService() error {
	if c.repo == nil {
		if err := c.repoManager(); err != nil {
			return err
		}
	}
	if c.eventBus == nil {
		if err := c.eventBusService(); err != nil {
			return err
		}
	}
	if err := c.managerService(); err != nil {
		return err
	}

	svc, err := application.NewLedgerService(
		context.Background(), c.repo.Ledger(), c.manager, c.eventBus, c.LedgerConfig(),
	)
	if err != nil {
		return err
	}

	c.ledgerSvc = svc
	return nil
}

func (c *Config) cursorService() error {
	if c.cursorStore == nil {
		if err := c.cursorStoreService(); err != nil {
			return err
		}
	}
	if c.chat == nil {
		if err := c.chatClient(); err != nil {
			return err
		}
	}

	svc, err := application.NewCursorService(c.cursorStore, c.chat)
	if err != nil {
		return err
	}

	c.cursorSvc = svc
	return nil
}

func (c *Config) operatorService() error {
	ledgerSvc, err := c.LedgerService()
	if err != nil {
		return err
	}
	cursorSvc, err := c.CursorService()
	if err != nil {
		return err
	}
	if err := c.signerService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}

	svc, err := application.NewOperatorService(
		application.OperatorConfig{
			PollInterval:  c.PollInterval,
			GroupLink:     c.GroupLink,
			SenderAddress: c.SenderAddress,
		},
		cursorSvc, ledgerSvc, c.signer, c.chat, c.scheduler,
	)
	if err != nil {
		return err
	}

	c.operatorSvc = svc
	return nil
}

func (c *Config) reporterService() error {
	if _, err := c.LedgerService(); err != nil {
		return err
	}
	if c.GroupId != 0 && c.chat == nil {
		if err := c.chatClient(); err != nil {
			return err
		}
	}
	if err := c.alertsService(); err != nil {
		return err
	}

	svc, err := application.NewReporterService(
		application.ReporterConfig{
			GroupId:       c.GroupId,
			LedgerAddress: c.ledgerSvc.GetInfo().Address,
		},
		c.eventBus, c.chat, c.alerts,
	)
	if err != nil {
		return err
	}

	c.reporterSvc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
