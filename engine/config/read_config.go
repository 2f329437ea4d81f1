package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

const (
	// DEFAULT_CONFIG_FILE is the config file used when -configfile is not given
	DEFAULT_CONFIG_FILE = "emberwild.ini"

	_DEFAULT_IP              = "0.0.0.0"
	_DEFAULT_PORT            = 8080
	_DEFAULT_PUBLIC_DIR      = "public"
	_DEFAULT_LOG_LEVEL       = "info"
	_DEFAULT_MAX_CONNECTIONS = 512
	_DEFAULT_SAVE_INTERVAL   = time.Second * 5
	_DEFAULT_TRADING_SWEEP   = time.Second * 30
	_DEFAULT_ZONE_REGEN_MIN  = 30
	_DEFAULT_TICK_RATE       = 20
	_DEFAULT_WORLD_SEED      = 1337
	_DEFAULT_PBKDF2_ITER     = 120000
	_DEFAULT_STORAGE_FILE    = "data/profiles.json"
	_DEFAULT_STORAGE_DB      = "emberwild"
	_DEFAULT_COLLECTION      = "profiles"
)

// ServerConfig defines fields of the [server] section
type ServerConfig struct {
	Ip             string
	Port           int
	PublicDir      string
	LogFile        string
	LogStderr      bool
	LogLevel       string
	MaxConnections int
}

// StorageConfig defines fields of the [storage] section
type StorageConfig struct {
	Type       string // Type of storage (filesystem, mongodb, redis)
	File       string // Profile file of filesystem storage, also the fallback target
	Url        string // Connection URL (mongodb, redis)
	DB         string // Database name (mongodb) or index (redis)
	Collection string // Collection (mongodb) or hash key (redis)
}

// GameConfig defines fields of the [game] section
type GameConfig struct {
	WorldSeed            int64
	TickRate             int
	SaveInterval         time.Duration
	TradingSweepInterval time.Duration
	ZoneRegenMinutes     int // 0 disables periodic zone regeneration
}

// AuthConfig defines fields of the [auth] section
type AuthConfig struct {
	PBKDF2Iterations int
}

// AdminConfig defines fields of the [admin] section
type AdminConfig struct {
	Profiles common.StringSet // profile ids granted admin at load
	Accounts common.StringSet // lower-cased account names granted admin at login
}

// Config defines the total config file structure
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Game    GameConfig
	Auth    AuthConfig
	Admin   AdminConfig
}

// TickInterval returns the fixed simulation step derived from TickRate
func (gc *GameConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(gc.TickRate)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Ip:             _DEFAULT_IP,
			Port:           _DEFAULT_PORT,
			PublicDir:      _DEFAULT_PUBLIC_DIR,
			LogFile:        "",
			LogStderr:      true,
			LogLevel:       _DEFAULT_LOG_LEVEL,
			MaxConnections: _DEFAULT_MAX_CONNECTIONS,
		},
		Storage: StorageConfig{
			Type:       "filesystem",
			File:       _DEFAULT_STORAGE_FILE,
			DB:         _DEFAULT_STORAGE_DB,
			Collection: _DEFAULT_COLLECTION,
		},
		Game: GameConfig{
			WorldSeed:            _DEFAULT_WORLD_SEED,
			TickRate:             _DEFAULT_TICK_RATE,
			SaveInterval:         _DEFAULT_SAVE_INTERVAL,
			TradingSweepInterval: _DEFAULT_TRADING_SWEEP,
			ZoneRegenMinutes:     _DEFAULT_ZONE_REGEN_MIN,
		},
		Auth: AuthConfig{
			PBKDF2Iterations: _DEFAULT_PBKDF2_ITER,
		},
		Admin: AdminConfig{
			Profiles: common.StringSet{},
			Accounts: common.StringSet{},
		},
	}
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

// Load reads the ini file at path on top of the defaults, then applies environment overrides
func Load(path string) (*Config, error) {
	config := Default()
	gwlog.Infof("Using config file: %s", path)
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}

	for _, sec := range iniFile.Sections() {
		secName := strings.ToLower(sec.Name())
		switch secName {
		case ini.DefaultSection, "default":
			continue
		case "server":
			err = readServerConfig(sec, &config.Server)
		case "storage":
			err = readStorageConfig(sec, &config.Storage)
		case "game":
			err = readGameConfig(sec, &config.Game)
		case "auth":
			err = readAuthConfig(sec, &config.Auth)
		case "admin":
			err = readAdminConfig(sec, &config.Admin)
		default:
			err = errors.Errorf("unknown section: %s", sec.Name())
		}
		if err != nil {
			return nil, err
		}
	}

	ApplyEnv(config, os.Getenv)
	normalizeStorageConfig(&config.Storage)
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func unknownKey(sec *ini.Section, key *ini.Key) error {
	return errors.Errorf("section %s has unknown key: %s", sec.Name(), key.Name())
}

func readServerConfig(sec *ini.Section, sc *ServerConfig) error {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			sc.Ip = key.MustString(sc.Ip)
		} else if name == "port" {
			sc.Port = key.MustInt(sc.Port)
		} else if name == "public_dir" {
			sc.PublicDir = key.MustString(sc.PublicDir)
		} else if name == "log_file" {
			sc.LogFile = key.MustString(sc.LogFile)
		} else if name == "log_stderr" {
			sc.LogStderr = key.MustBool(sc.LogStderr)
		} else if name == "log_level" {
			sc.LogLevel = key.MustString(sc.LogLevel)
		} else if name == "max_connections" {
			sc.MaxConnections = key.MustInt(sc.MaxConnections)
		} else {
			return unknownKey(sec, key)
		}
	}
	return nil
}

func readStorageConfig(sec *ini.Section, config *StorageConfig) error {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "file" {
			config.File = key.MustString(config.File)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if name == "collection" {
			config.Collection = key.MustString(config.Collection)
		} else {
			return unknownKey(sec, key)
		}
	}
	return nil
}

func readGameConfig(sec *ini.Section, gc *GameConfig) error {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "world_seed" {
			gc.WorldSeed = key.MustInt64(gc.WorldSeed)
		} else if name == "tick_rate" {
			gc.TickRate = key.MustInt(gc.TickRate)
		} else if name == "save_interval" {
			gc.SaveInterval = time.Second * time.Duration(key.MustInt(int(gc.SaveInterval/time.Second)))
		} else if name == "trading_sweep_interval" {
			gc.TradingSweepInterval = time.Second * time.Duration(key.MustInt(int(gc.TradingSweepInterval/time.Second)))
		} else if name == "zone_regen_minutes" {
			gc.ZoneRegenMinutes = key.MustInt(gc.ZoneRegenMinutes)
		} else {
			return unknownKey(sec, key)
		}
	}
	return nil
}

func readAuthConfig(sec *ini.Section, ac *AuthConfig) error {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "pbkdf2_iterations" {
			ac.PBKDF2Iterations = key.MustInt(ac.PBKDF2Iterations)
		} else {
			return unknownKey(sec, key)
		}
	}
	return nil
}

func readAdminConfig(sec *ini.Section, ac *AdminConfig) error {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if strings.HasPrefix(name, "profile_") {
			ac.Profiles.Add(key.MustString(""))
		} else if strings.HasPrefix(name, "account_") {
			ac.Accounts.Add(strings.ToLower(key.MustString("")))
		} else {
			return unknownKey(sec, key)
		}
	}
	return nil
}

// ApplyEnv overrides config fields from environment variables looked up by getenv
func ApplyEnv(config *Config, getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		} else {
			gwlog.Warnf("ignoring invalid PORT=%q", v)
		}
	}
	if v := getenv("STORAGE_TYPE"); v != "" {
		config.Storage.Type = strings.ToLower(v)
	}
	if v := firstEnv(getenv, "STORAGE_URL", "MONGO_URL"); v != "" {
		config.Storage.Url = v
	}
	if v := firstEnv(getenv, "STORAGE_DB", "MONGO_DB"); v != "" {
		config.Storage.DB = v
	}
	if v := firstEnv(getenv, "STORAGE_COLLECTION", "MONGO_COLLECTION"); v != "" {
		config.Storage.Collection = v
	}
	if v := getenv("REDIS_URL"); v != "" && config.Storage.Type == "redis" {
		config.Storage.Url = v
	}
	if v := getenv("PROFILE_FILE"); v != "" {
		config.Storage.File = v
	}
	// a mongo url without an explicit backend selects mongodb
	if getenv("STORAGE_TYPE") == "" && getenv("MONGO_URL") != "" {
		config.Storage.Type = "mongodb"
	}
}

func firstEnv(getenv func(string) string, names ...string) string {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that the config can run a server
func Validate(config *Config) error {
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return errors.Errorf("invalid port %d", config.Server.Port)
	}
	if config.Game.TickRate <= 0 || config.Game.TickRate > 1000 {
		return errors.Errorf("invalid tick_rate %d", config.Game.TickRate)
	}
	if config.Game.SaveInterval <= 0 {
		return errors.Errorf("save_interval must be positive")
	}
	if config.Game.TradingSweepInterval <= 0 {
		return errors.Errorf("trading_sweep_interval must be positive")
	}
	if config.Game.ZoneRegenMinutes < 0 || config.Game.ZoneRegenMinutes > 60 {
		return errors.Errorf("zone_regen_minutes must be within [0, 60]")
	}
	if config.Auth.PBKDF2Iterations < 1 {
		return errors.Errorf("pbkdf2_iterations must be positive")
	}
	return validateStorageConfig(&config.Storage)
}

func normalizeStorageConfig(config *StorageConfig) {
	if config.Type == "redis" {
		if _, err := strconv.Atoi(config.DB); err != nil {
			config.DB = "0"
		}
	}
}

func validateStorageConfig(config *StorageConfig) error {
	switch config.Type {
	case "filesystem":
	case "mongodb":
		if config.Url == "" {
			return errors.Errorf("url is not set in %s storage config", config.Type)
		}
		if config.DB == "" || config.Collection == "" {
			return errors.Errorf("db and collection must be set in %s storage config", config.Type)
		}
	case "redis":
		if config.Url == "" {
			return errors.Errorf("url is not set in %s storage config", config.Type)
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			return errors.Wrap(err, "redis db must be integer")
		}
	default:
		return errors.Errorf("unknown storage type: %s", config.Type)
	}
	// filesystem is also the fallback for the other backends
	if config.File == "" {
		return errors.Errorf("file is not set in storage config")
	}
	return nil
}
