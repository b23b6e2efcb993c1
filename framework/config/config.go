package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/timer"
)

var Config *AppConfig

type AppConfig struct {
	AppVersion   string `json:"app_version" mapstructure:"app_version"`
	TimerConfig  `json:",inline" mapstructure:",inline"`
	LogConfig    `json:",inline" mapstructure:",inline"`
	ServerConfig `json:",inline" mapstructure:",inline"`
	RedisConfig  `json:",inline" mapstructure:",inline"`
	IsDebug      bool `json:"is_debug" mapstructure:"is_debug"`
}

type TimerConfig struct {
	TimerKind     string `json:"timer_kind" mapstructure:"timer_kind"`         //list wheel mill leanmill
	TimerCapacity int    `json:"timer_capacity" mapstructure:"timer_capacity"` //定时器总数上限
	TimerUnitMs   int    `json:"timer_unit_ms" mapstructure:"timer_unit_ms"`   //tick时长 毫秒
	TimerSpokes   int    `json:"timer_spokes" mapstructure:"timer_spokes"`
	TimerLevels   int    `json:"timer_levels" mapstructure:"timer_levels"`
	TimerDim      int    `json:"timer_dim" mapstructure:"timer_dim"`
}

type LogConfig struct {
	LogPath   string `json:"log_path" mapstructure:"log_path"`
	LogName   string `json:"log_name" mapstructure:"log_name"`
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogStdOut bool   `json:"log_std_out" mapstructure:"log_std_out"`
}

type ServerConfig struct {
	ListenAddr   string `json:"listen_addr" mapstructure:"listen_addr"`       //tcp://:7070
	PollerNum    int    `json:"poller_num" mapstructure:"poller_num"`         //gnet event loop数量，0表示按核数
	TickMs       int    `json:"tick_ms" mapstructure:"tick_ms"`               //驱动调度器的间隔 毫秒
	MaxFrameSize int    `json:"max_frame_size" mapstructure:"max_frame_size"` //单个报文上限
}

type RedisConfig struct {
	RedisMode       string `json:"redis_mode" mapstructure:"redis_mode"`
	RedisAddr       string `json:"redis_addr" mapstructure:"redis_addr"` // 多个地址用,隔开，为空时不推送到期事件
	RedisMasterName string `json:"redis_master_name" mapstructure:"redis_master_name"`
	RedisPassword   string `json:"redis_password" mapstructure:"redis_password"`
	RedisDB         int    `json:"redis_db" mapstructure:"redis_db"`
	RedisChannel    string `json:"redis_channel" mapstructure:"redis_channel"` //到期事件发布的频道
}

// Default 没有配置文件时使用
func Default() *AppConfig {
	return &AppConfig{
		TimerConfig: TimerConfig{
			TimerKind:     string(timer.KindMill),
			TimerCapacity: 1 << 16,
			TimerUnitMs:   1,
			TimerLevels:   timer.DefaultLevels,
			TimerDim:      timer.DefaultDim,
			TimerSpokes:   256,
		},
		LogConfig: LogConfig{
			LogName:   "tmrkitd",
			LogLevel:  "info",
			LogStdOut: true,
		},
		ServerConfig: ServerConfig{
			ListenAddr:   "tcp://:7070",
			TickMs:       10,
			MaxFrameSize: 4096,
		},
		RedisConfig: RedisConfig{
			RedisChannel: "tmrkit:expired",
		},
	}
}

func LoadConfig(configFile string, loadConfigFromEnv func(*AppConfig) error) error {
	Config = Default()
	if len(configFile) != 0 {
		if err := loadConfigFromFile(configFile); err != nil {
			return err
		}
	}
	if loadConfigFromEnv != nil {
		if err := loadConfigFromEnv(Config); err != nil {
			return err
		}
	}
	return Config.Check()
}

func loadConfigFromFile(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, Config); err != nil {
		return errs.Config.Print(configFile).Wrap(err)
	}
	return nil
}

const envPrefix = "TMRKIT_"

// LoadFromEnv 用TMRKIT_前缀的环境变量覆盖配置，变量名是json字段名的大写
func LoadFromEnv(conf *AppConfig) error {
	for _, f := range conf.envFields() {
		v, ok := os.LookupEnv(envPrefix + strings.ToUpper(f.name))
		if !ok {
			continue
		}
		switch p := f.ptr.(type) {
		case *string:
			*p = v
		case *int:
			n, err := strconv.Atoi(v)
			if err != nil {
				return errs.Config.Printf("env %s%s: %v", envPrefix, strings.ToUpper(f.name), err)
			}
			*p = n
		case *bool:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errs.Config.Printf("env %s%s: %v", envPrefix, strings.ToUpper(f.name), err)
			}
			*p = b
		}
	}
	return nil
}

type envField struct {
	name string
	ptr  any
}

func (conf *AppConfig) envFields() []envField {
	return []envField{
		{"app_version", &conf.AppVersion},
		{"is_debug", &conf.IsDebug},
		{"timer_kind", &conf.TimerKind},
		{"timer_capacity", &conf.TimerCapacity},
		{"timer_unit_ms", &conf.TimerUnitMs},
		{"timer_spokes", &conf.TimerSpokes},
		{"timer_levels", &conf.TimerLevels},
		{"timer_dim", &conf.TimerDim},
		{"log_path", &conf.LogPath},
		{"log_name", &conf.LogName},
		{"log_level", &conf.LogLevel},
		{"log_std_out", &conf.LogStdOut},
		{"listen_addr", &conf.ListenAddr},
		{"poller_num", &conf.PollerNum},
		{"tick_ms", &conf.TickMs},
		{"max_frame_size", &conf.MaxFrameSize},
		{"redis_mode", &conf.RedisMode},
		{"redis_addr", &conf.RedisAddr},
		{"redis_master_name", &conf.RedisMasterName},
		{"redis_password", &conf.RedisPassword},
		{"redis_db", &conf.RedisDB},
		{"redis_channel", &conf.RedisChannel},
	}
}

// Check 只检查服务自身的参数，调度器参数在构造时检查
func (conf *AppConfig) Check() error {
	if conf.ListenAddr == "" {
		return errs.Config.Print("listen_addr is empty")
	}
	if conf.TickMs <= 0 {
		return errs.Config.Printf("tick_ms must be positive, got %d", conf.TickMs)
	}
	if conf.MaxFrameSize <= 0 {
		return errs.Config.Printf("max_frame_size must be positive, got %d", conf.MaxFrameSize)
	}
	return nil
}

func (conf *TimerConfig) ToTimerConfig() timer.Config {
	return timer.Config{
		Kind:     timer.Kind(conf.TimerKind),
		Capacity: conf.TimerCapacity,
		Unit:     time.Duration(conf.TimerUnitMs) * time.Millisecond,
		Spokes:   conf.TimerSpokes,
		Levels:   conf.TimerLevels,
		Dim:      conf.TimerDim,
	}
}

func (conf *ServerConfig) Tick() time.Duration {
	return time.Duration(conf.TickMs) * time.Millisecond
}

func (conf *AppConfig) JsonFormat() string {
	if conf == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
