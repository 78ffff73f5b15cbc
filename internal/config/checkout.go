package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CheckoutConfig is the operator-tunable store policy, covering checkout
// limits and the billing grace window. It is read from checkout.yml and
// hot-reloaded so a running instance picks up changes to payment methods or
// retry budget without a restart.
type CheckoutConfig struct {
	MaxAllocationAttempts int      `mapstructure:"maxAllocationAttempts"`
	PaymentMethods        []string `mapstructure:"paymentMethods"`
	DefaultPaymentMethod  string   `mapstructure:"defaultPaymentMethod"`
	PaymentNoteMaxLen     int      `mapstructure:"paymentNoteMaxLen"`
	MaxQuantityPerLine    int      `mapstructure:"maxQuantityPerLine"`
	GraceDays             int      `mapstructure:"graceDays"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		MaxAllocationAttempts: 3,
		PaymentMethods:        []string{"cash", "card", "transfer", "other"},
		DefaultPaymentMethod:  "cash",
		PaymentNoteMaxLen:     200,
		MaxQuantityPerLine:    99,
		GraceDays:             3,
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

func NewCheckoutConfigHolder() (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/comercia/config")
	v.AddConfigPath("/etc/comercia")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COMERCIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultCheckoutConfig()
		v.SetDefault("checkout.maxAllocationAttempts", defaults.MaxAllocationAttempts)
		v.SetDefault("checkout.paymentMethods", defaults.PaymentMethods)
		v.SetDefault("checkout.defaultPaymentMethod", defaults.DefaultPaymentMethod)
		v.SetDefault("checkout.paymentNoteMaxLen", defaults.PaymentNoteMaxLen)
		v.SetDefault("checkout.maxQuantityPerLine", defaults.MaxQuantityPerLine)
		v.SetDefault("checkout.graceDays", defaults.GraceDays)
	}

	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return nil, err
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CheckoutConfig
		if err := v.UnmarshalKey("checkout", &updated); err != nil {
			log.Printf("[checkout-config] reload failed: %v", err)
			return
		}
		if err := validateCheckoutConfig(updated); err != nil {
			log.Printf("[checkout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[checkout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	return h.current.Load().(CheckoutConfig)
}

// NewStaticCheckoutConfigHolder returns a holder pinned to cfg, for tests.
func NewStaticCheckoutConfigHolder(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if cfg.MaxAllocationAttempts < 1 {
		return errors.New("checkout.maxAllocationAttempts must be at least 1")
	}
	if len(cfg.PaymentMethods) == 0 {
		return errors.New("checkout.paymentMethods cannot be empty")
	}
	if cfg.PaymentNoteMaxLen < 0 {
		return errors.New("checkout.paymentNoteMaxLen cannot be negative")
	}
	if cfg.MaxQuantityPerLine < 1 {
		return errors.New("checkout.maxQuantityPerLine must be at least 1")
	}
	if cfg.GraceDays < 0 {
		return errors.New("checkout.graceDays cannot be negative")
	}
	return nil
}
