package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ParserConfig drives how extracted recipe text is split into fields.
type ParserConfig struct {
	IngredientKeywords  []string `mapstructure:"ingredientKeywords"`
	InstructionKeywords []string `mapstructure:"instructionKeywords"`
	TimePattern         string   `mapstructure:"timePattern"`
	ServingsPattern     string   `mapstructure:"servingsPattern"`
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		IngredientKeywords:  []string{"ingredients", "what you need"},
		InstructionKeywords: []string{"instructions", "directions", "method", "steps"},
		TimePattern:         `(\d+)\s*(min|hour|hr|minute|minutes|hours)`,
		ServingsPattern:     `serves\s*(\d+)|servings[:]*\s*(\d+)|yield[:]*\s*(\d+)`,
	}
}

type ParserConfigHolder struct {
	current atomic.Value // holds ParserConfig
}

func NewParserConfigHolder() (*ParserConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("parser")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/platebook/config") // Volume-mounted config
	v.AddConfigPath("/etc/platebook")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("PLATEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultParserConfig()
	v.SetDefault("parser.ingredientKeywords", defaults.IngredientKeywords)
	v.SetDefault("parser.instructionKeywords", defaults.InstructionKeywords)
	v.SetDefault("parser.timePattern", defaults.TimePattern)
	v.SetDefault("parser.servingsPattern", defaults.ServingsPattern)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg ParserConfig
	if err := v.UnmarshalKey("parser", &cfg); err != nil {
		return nil, err
	}
	if err := validateParserConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ParserConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ParserConfig
		if err := v.UnmarshalKey("parser", &updated); err != nil {
			log.Printf("[parser-config] reload failed: %v", err)
			return
		}
		if err := validateParserConfig(updated); err != nil {
			log.Printf("[parser-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[parser-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ParserConfigHolder) Get() ParserConfig {
	return h.current.Load().(ParserConfig)
}

func validateParserConfig(cfg ParserConfig) error {
	if len(cfg.IngredientKeywords) == 0 {
		return errors.New("parser.ingredientKeywords cannot be empty")
	}
	if len(cfg.InstructionKeywords) == 0 {
		return errors.New("parser.instructionKeywords cannot be empty")
	}
	if strings.TrimSpace(cfg.TimePattern) == "" {
		return errors.New("parser.timePattern cannot be empty")
	}
	if strings.TrimSpace(cfg.ServingsPattern) == "" {
		return errors.New("parser.servingsPattern cannot be empty")
	}
	return nil
}
