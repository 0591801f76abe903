// Package config loads the marketplace bot configuration.
package config

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/marketbot/core/config"
	coredatabase "github.com/m3rciful/marketbot/core/database"
)

const (
	defaultOrdersLimit = 10
	defaultCurrency    = "SAR"
	maxOrdersLimit     = 50
)

// MarketConfig tunes seller facing listings.
type MarketConfig struct {
	// OrdersLimit caps the number of orders shown by the orders list.
	OrdersLimit int    `yaml:"orders_limit" envconfig:"MARKET_ORDERS_LIMIT"`
	Currency    string `yaml:"currency" envconfig:"MARKET_CURRENCY"`
}

// Config is the complete application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Market   MarketConfig        `yaml:"market"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	switch {
	case c.Market.OrdersLimit == 0:
		c.Market.OrdersLimit = defaultOrdersLimit
	case c.Market.OrdersLimit < 0 || c.Market.OrdersLimit > maxOrdersLimit:
		return fmt.Errorf("market.orders_limit must be between 1 and %d", maxOrdersLimit)
	}
	c.Market.Currency = strings.TrimSpace(c.Market.Currency)
	if c.Market.Currency == "" {
		c.Market.Currency = defaultCurrency
	}
	return nil
}
