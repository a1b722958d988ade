package config

import (
	"errors"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var accentColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// InvoiceDefaults seeds every new wizard.
type InvoiceDefaults struct {
	NumberTemplate string `mapstructure:"numberTemplate"`
	Currency       string `mapstructure:"currency"`
	DueInDays      int    `mapstructure:"dueInDays"`
	Notes          string `mapstructure:"notes"`
	AccentColor    string `mapstructure:"accentColor"`
}

func DefaultInvoiceDefaults() InvoiceDefaults {
	return InvoiceDefaults{
		NumberTemplate: "AIX-{SEQ6}",
		Currency:       "GBP",
		DueInDays:      0,
		Notes:          "",
		AccentColor:    "#111827",
	}
}

type InvoiceDefaultsHolder struct {
	current atomic.Value // holds InvoiceDefaults
}

// NewStaticInvoiceDefaults returns a holder that never reloads.
func NewStaticInvoiceDefaults(d InvoiceDefaults) *InvoiceDefaultsHolder {
	h := &InvoiceDefaultsHolder{}
	h.current.Store(d)
	return h
}

// NewInvoiceDefaultsHolder reads invoice.yml and keeps it hot-reloaded. A
// missing file yields the built-in defaults.
func NewInvoiceDefaultsHolder(log *zap.Logger) (*InvoiceDefaultsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.invoice")

	v := viper.New()
	v.SetConfigName("invoice")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/quickinvoice")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUICKINVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoiceDefaults()
	v.SetDefault("invoice.numberTemplate", defaults.NumberTemplate)
	v.SetDefault("invoice.currency", defaults.Currency)
	v.SetDefault("invoice.dueInDays", defaults.DueInDays)
	v.SetDefault("invoice.notes", defaults.Notes)
	v.SetDefault("invoice.accentColor", defaults.AccentColor)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeInvoiceDefaults(v)
	if err != nil {
		return nil, err
	}
	if err := validateInvoiceDefaults(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoiceDefaults(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeInvoiceDefaults(v)
		if err != nil {
			log.Warn("invoice defaults reload failed", zap.Error(err))
			return
		}
		if err := validateInvoiceDefaults(updated); err != nil {
			log.Warn("invalid invoice defaults ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("invoice defaults reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// decodeInvoiceDefaults goes through Unmarshal so keys missing from the file
// still pick up their defaults.
func decodeInvoiceDefaults(v *viper.Viper) (InvoiceDefaults, error) {
	var file struct {
		Invoice InvoiceDefaults `mapstructure:"invoice"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return InvoiceDefaults{}, err
	}
	return file.Invoice, nil
}

func (h *InvoiceDefaultsHolder) Get() InvoiceDefaults {
	return h.current.Load().(InvoiceDefaults)
}

func validateInvoiceDefaults(cfg InvoiceDefaults) error {
	if strings.TrimSpace(cfg.NumberTemplate) == "" {
		return errors.New("invoice.numberTemplate cannot be empty")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("invoice.currency cannot be empty")
	}
	if cfg.DueInDays < 0 {
		return errors.New("invoice.dueInDays cannot be negative")
	}
	if cfg.AccentColor != "" && !accentColorPattern.MatchString(cfg.AccentColor) {
		return errors.New("invoice.accentColor must be a #rrggbb colour")
	}
	return nil
}
