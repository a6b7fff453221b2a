package config

import (
	"flag"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	sc "github.com/sksmith/go-spring-config"
	"github.com/spf13/viper"
)

const (
	AppName  = "Room Reservation"
	Revision = "1"

	maxRetries = 5
)

var (
	// Build time arguments
	AppVersion  string
	Sha1Version string
	BuildTime   string

	// Runtime flags
	profile        *string
	configSource   *string
	configUrl      *string
	configBranch   *string
	configUser     *string
	configPass     *string
	GenerateRoutes *bool
)

type StringConfig struct {
	Value       string `json:"value"       yaml:"value"`
	Default     string `json:"default"     yaml:"default"`
	Description string `json:"description" yaml:"description"`
}

type BoolConfig struct {
	Value       bool   `json:"value"       yaml:"value"`
	Default     bool   `json:"default"     yaml:"default"`
	Description string `json:"description" yaml:"description"`
}

type IntConfig struct {
	Value       int    `json:"value"       yaml:"value"`
	Default     int    `json:"default"     yaml:"default"`
	Description string `json:"description" yaml:"description"`
}

type DurationConfig struct {
	Value       time.Duration `json:"value"       yaml:"value"`
	Default     time.Duration `json:"default"     yaml:"default"`
	Description string        `json:"description" yaml:"description"`
}

type Config struct {
	AppName     StringConfig      `json:"appName"     yaml:"appName"`
	AppVersion  StringConfig      `json:"appVersion"  yaml:"appVersion"`
	Sha1Version StringConfig      `json:"sha1Version" yaml:"sha1Version"`
	BuildTime   StringConfig      `json:"buildTime"   yaml:"buildTime"`
	Profile     StringConfig      `json:"profile"     yaml:"profile"`
	Revision    StringConfig      `json:"revision"    yaml:"revision"`
	Port        StringConfig      `json:"port"        yaml:"port"`
	Config      ConfigSource      `json:"config"      yaml:"config"`
	Log         LogConfig         `json:"log"         yaml:"log"`
	Db          DbConfig          `json:"db"          yaml:"db"`
	RabbitMQ    QueueConfig       `json:"rabbitmq"    yaml:"rabbitmq"`
	Reservation ReservationConfig `json:"reservation" yaml:"reservation"`
	Notify      NotifyConfig      `json:"notify"      yaml:"notify"`
	Cache       CacheConfig       `json:"cache"       yaml:"cache"`
	Admin       AdminConfig       `json:"admin"       yaml:"admin"`
}

type ConfigSource struct {
	Print  BoolConfig   `json:"print"  yaml:"print"`
	Source StringConfig `json:"source" yaml:"source"`
	Spring SpringConfig `json:"spring" yaml:"spring"`
}

type SpringConfig struct {
	Url    StringConfig `json:"url"    yaml:"url"`
	Branch StringConfig `json:"branch" yaml:"branch"`
	User   StringConfig `json:"user"   yaml:"user"`
	Pass   StringConfig `json:"pass"   yaml:"pass"   sensitive:"true"`
}

type LogConfig struct {
	Level      StringConfig `json:"level"      yaml:"level"`
	Structured BoolConfig   `json:"structured" yaml:"structured"`
}

type DbConfig struct {
	Name     StringConfig `json:"name"     yaml:"name"`
	Host     StringConfig `json:"host"     yaml:"host"`
	Port     StringConfig `json:"port"     yaml:"port"`
	Migrate  BoolConfig   `json:"migrate"  yaml:"migrate"`
	Clean    BoolConfig   `json:"clean"    yaml:"clean"`
	InMemory BoolConfig   `json:"inMemory" yaml:"inMemory"`
	User     StringConfig `json:"user"     yaml:"user"`
	Pass     StringConfig `json:"pass"     yaml:"pass"     sensitive:"true"`
	Pool     DbPoolConfig `json:"pool"     yaml:"pool"`
}

type DbPoolConfig struct {
	MinSize IntConfig `json:"minSize" yaml:"minSize"`
	MaxSize IntConfig `json:"maxSize" yaml:"maxSize"`
}

type QueueConfig struct {
	Host         StringConfig    `json:"host"         yaml:"host"`
	Port         StringConfig    `json:"port"         yaml:"port"`
	User         StringConfig    `json:"user"         yaml:"user"`
	Pass         StringConfig    `json:"pass"         yaml:"pass"         sensitive:"true"`
	Mock         BoolConfig      `json:"mock"         yaml:"mock"`
	Inventory    ExchangeConfig  `json:"inventory"    yaml:"inventory"`
	Reservation  ExchangeConfig  `json:"reservation"  yaml:"reservation"`
	Notification ExchangeConfig  `json:"notification" yaml:"notification"`
	Unit         UnitQueueConfig `json:"unit"         yaml:"unit"`
}

type ExchangeConfig struct {
	Exchange StringConfig `json:"exchange" yaml:"exchange"`
}

type UnitQueueConfig struct {
	Queue StringConfig   `json:"queue" yaml:"queue"`
	Dlt   ExchangeConfig `json:"dlt"   yaml:"dlt"`
}

type ReservationConfig struct {
	DefaultCapacity     IntConfig      `json:"defaultCapacity"     yaml:"defaultCapacity"`
	CancellationCutoff  DurationConfig `json:"cancellationCutoff"  yaml:"cancellationCutoff"`
	CalendarHorizonDays IntConfig      `json:"calendarHorizonDays" yaml:"calendarHorizonDays"`
	MaxNights           IntConfig      `json:"maxNights"           yaml:"maxNights"`
}

type NotifyConfig struct {
	Mode    StringConfig        `json:"mode"    yaml:"mode"`
	Gateway NotifyGatewayConfig `json:"gateway" yaml:"gateway"`
}

type NotifyGatewayConfig struct {
	Url     StringConfig   `json:"url"     yaml:"url"`
	Token   StringConfig   `json:"token"   yaml:"token"   sensitive:"true"`
	Timeout DurationConfig `json:"timeout" yaml:"timeout"`
}

type AdminConfig struct {
	User StringConfig `json:"user" yaml:"user"`
	Pass StringConfig `json:"pass" yaml:"pass" sensitive:"true"`
}

type CacheConfig struct {
	Size IntConfig `json:"size" yaml:"size"`
}

func (c *Config) Print() {
	if c.Config.Print.Value {
		log.Info().Interface("config", c).Msg("the following configurations have successfully loaded")
	}
}

func init() {
	profile = flag.String("p", "local", "profile for the application config")
	configSource = flag.String("s", "local", "where to get configurations from: local, spring")
	configUrl = flag.String("cfgUrl", "", "url for application config server")
	configBranch = flag.String("cfgBranch", "", "branch to request from the configuration server (used for spring cloud config)")
	configUser = flag.String("cfgUser", "", "username to use when connecting to the application server")
	configPass = flag.String("cfgPass", "", "password to use when connecting to the application server")
	GenerateRoutes = flag.Bool("routes", false, "generate router documentation and exit")
}

// LoadDefaults returns a configuration made of defaults and environment
// overrides only.
func LoadDefaults() *Config {
	b := newBuilder()
	cfg := b.build()
	b.apply()
	return cfg
}

// Load reads configName.yaml from the working directory, or the remote Spring
// Cloud Config server when started with -s spring, on top of the defaults.
func Load(configName string) *Config {
	b := newBuilder()
	cfg := b.build()

	var err error
	switch *configSource {
	case "local":
		err = b.loadLocal(configName)
	case "spring":
		err = b.loadRemote()
	default:
		log.Warn().
			Str("configSource", *configSource).
			Msg("unrecognized configuration source, using local")

		err = b.loadLocal(configName)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configurations")
	}

	b.apply()
	return cfg
}

type builder struct {
	v       *viper.Viper
	loaders []func()
}

func newBuilder() *builder {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &builder{v: v}
}

func (b *builder) loadLocal(configName string) error {
	log.Info().Str("name", configName).Msg("loading local configurations...")

	b.v.SetConfigName(configName)
	b.v.SetConfigType("yaml")
	b.v.AddConfigPath(".")

	err := b.v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		log.Warn().Str("name", configName).Msg("no local configuration file found, using defaults")
		return nil
	}
	return err
}

func (b *builder) loadRemote() error {
	log.Info().Str("url", *configUrl).Str("branch", *configBranch).Msg("loading remote configurations...")

	var remote *sc.Config
	var err error
	for tryCount := 1; tryCount <= maxRetries; tryCount++ {
		remote, err = sc.LoadWithCreds(*configUrl, AppName, *configBranch, *configUser, *configPass, *profile)
		if err == nil {
			break
		}
		log.Error().Err(err).Int("try", tryCount).Msg("failed to load configurations... retrying")
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		return err
	}

	for k, v := range remote.Values {
		b.v.Set(k, v)
	}
	return nil
}

func (b *builder) apply() {
	for _, load := range b.loaders {
		load()
	}
}

func (b *builder) str(p *StringConfig, key, def, desc string) {
	p.Default, p.Description = def, desc
	b.v.SetDefault(key, def)
	b.loaders = append(b.loaders, func() { p.Value = b.v.GetString(key) })
}

func (b *builder) boolean(p *BoolConfig, key string, def bool, desc string) {
	p.Default, p.Description = def, desc
	b.v.SetDefault(key, def)
	b.loaders = append(b.loaders, func() { p.Value = b.v.GetBool(key) })
}

func (b *builder) integer(p *IntConfig, key string, def int, desc string) {
	p.Default, p.Description = def, desc
	b.v.SetDefault(key, def)
	b.loaders = append(b.loaders, func() { p.Value = b.v.GetInt(key) })
}

func (b *builder) duration(p *DurationConfig, key string, def time.Duration, desc string) {
	p.Default, p.Description = def, desc
	b.v.SetDefault(key, def)
	b.loaders = append(b.loaders, func() { p.Value = b.v.GetDuration(key) })
}

// fixed properties come from the build, not from configuration sources.
func fixed(p *StringConfig, value, desc string) {
	p.Value, p.Default, p.Description = value, value, desc
}

func (b *builder) build() *Config {
	c := &Config{}

	fixed(&c.AppName, AppName, "Name of the application in a human readable format.")
	fixed(&c.AppVersion, AppVersion, "Semantic version of the application. Example: v1.2.3")
	fixed(&c.Sha1Version, Sha1Version, "Git sha1 hash of the application version.")
	fixed(&c.BuildTime, BuildTime, "When the application was compiled.")
	fixed(&c.Revision, Revision, "A hard coded revision handy for quickly determining if local changes are running.")

	b.str(&c.Profile, "profile", *profile, "Running profile of the application. Examples: local, dev, prod")
	b.str(&c.Port, "port", "8080", "Port that the application will bind to on startup.")

	b.boolean(&c.Config.Print, "config.print", false, "Print configurations on startup.")
	b.str(&c.Config.Source, "config.source", *configSource, "Where the application should go for configurations. Examples: local, spring")
	b.str(&c.Config.Spring.Url, "config.spring.url", *configUrl, "The url of the Spring Cloud Config server.")
	b.str(&c.Config.Spring.Branch, "config.spring.branch", *configBranch, "The git branch to pull configurations from.")
	b.str(&c.Config.Spring.User, "config.spring.user", *configUser, "User to use when connecting to the Spring Cloud Config server.")
	b.str(&c.Config.Spring.Pass, "config.spring.pass", *configPass, "Password to use when connecting to the Spring Cloud Config server.")

	b.str(&c.Log.Level, "log.level", "trace", "The lowest level that the application should log at. Examples: info, warn, error.")
	b.boolean(&c.Log.Structured, "log.structured", false, "Whether the application should output structured (json) logging, or human friendly plain text.")

	b.str(&c.Db.Name, "db.name", "reservation-db", "The name of the database to connect to.")
	b.str(&c.Db.Host, "db.host", "localhost", "Host of the database.")
	b.str(&c.Db.Port, "db.port", "5432", "Port of the database.")
	b.boolean(&c.Db.Migrate, "db.migrate", true, "Whether or not database migrations should be executed on startup.")
	b.boolean(&c.Db.Clean, "db.clean", false, "WARNING: THIS WILL DELETE ALL DATA FROM THE DB. If clean is true, all 'down' migrations are executed first.")
	b.boolean(&c.Db.InMemory, "db.inMemory", false, "Whether or not the application should use an in memory database.")
	b.str(&c.Db.User, "db.user", "postgres", "User the application will use to connect to the database.")
	b.str(&c.Db.Pass, "db.pass", "postgres", "Password the application will use for connecting to the database.")
	b.integer(&c.Db.Pool.MinSize, "db.pool.minSize", 1, "Minimum number of connections kept in the pool.")
	b.integer(&c.Db.Pool.MaxSize, "db.pool.maxSize", 10, "Maximum number of connections in the pool.")

	b.str(&c.RabbitMQ.Host, "rabbitmq.host", "localhost", "RabbitMQ's broker host.")
	b.str(&c.RabbitMQ.Port, "rabbitmq.port", "5672", "RabbitMQ's broker host port.")
	b.str(&c.RabbitMQ.User, "rabbitmq.user", "guest", "User the application will use to connect to RabbitMQ.")
	b.str(&c.RabbitMQ.Pass, "rabbitmq.pass", "guest", "Password the application will use to connect to RabbitMQ.")
	b.boolean(&c.RabbitMQ.Mock, "rabbitmq.mock", false, "Whether or not the application should mock sending messages to RabbitMQ.")
	b.str(&c.RabbitMQ.Inventory.Exchange, "rabbitmq.inventory.exchange", "inventory.exchange", "Exchange for posting inventory updates.")
	b.str(&c.RabbitMQ.Reservation.Exchange, "rabbitmq.reservation.exchange", "reservation.exchange", "Exchange for posting reservation updates.")
	b.str(&c.RabbitMQ.Notification.Exchange, "rabbitmq.notification.exchange", "notification.exchange", "Exchange for posting user notifications when notify.mode is queue.")
	b.str(&c.RabbitMQ.Unit.Queue, "rabbitmq.unit.queue", "unit.queue", "Queue of bookable units created by the catalog.")
	b.str(&c.RabbitMQ.Unit.Dlt.Exchange, "rabbitmq.unit.dlt.exchange", "unit.dlt.exchange", "Exchange for unit messages that could not be processed.")

	b.integer(&c.Reservation.DefaultCapacity, "reservation.defaultCapacity", 10, "Rooms per date for units that do not declare a quantity.")
	b.duration(&c.Reservation.CancellationCutoff, "reservation.cancellationCutoff", 24*time.Hour, "How long before the start date a user may still cancel.")
	b.integer(&c.Reservation.CalendarHorizonDays, "reservation.calendarHorizonDays", 365, "Days of inventory generated for a newly created unit.")
	b.integer(&c.Reservation.MaxNights, "reservation.maxNights", 730, "Longest date range accepted by booking, search and calendar requests.")

	b.str(&c.Notify.Mode, "notify.mode", "log", "How users are notified. Examples: log, gateway, queue")
	b.str(&c.Notify.Gateway.Url, "notify.gateway.url", "http://localhost:8081", "Base url of the email and sms gateway.")
	b.str(&c.Notify.Gateway.Token, "notify.gateway.token", "", "Bearer token sent to the gateway.")
	b.duration(&c.Notify.Gateway.Timeout, "notify.gateway.timeout", 5*time.Second, "Timeout of a single gateway request.")

	b.integer(&c.Cache.Size, "cache.size", 256, "Number of catalog units and users held in the lru caches.")

	b.str(&c.Admin.User, "admin.user", "admin", "Administrator created on startup when it does not exist yet.")
	b.str(&c.Admin.Pass, "admin.pass", "", "Password of the startup administrator. No administrator is created when empty.")

	return c
}
