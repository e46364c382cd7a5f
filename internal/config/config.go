package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-roster/pkg/clients/solverclient"
	"github.com/jakechorley/shift-roster/pkg/core/leaveguard"
	"github.com/jakechorley/shift-roster/pkg/core/model"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// RequirementOverride replaces a location's per-grade headcount on the dates
// matched by RRule
type RequirementOverride struct {
	RRule        string      `yaml:"rrule" validate:"required"`
	Location     string      `yaml:"location" validate:"required,oneof=A B"`
	Requirements map[int]int `yaml:"requirements" validate:"required,min=1,dive,keys,min=1,max=9,endkeys,min=0"`
}

// SolverConfig describes the external solver process
type SolverConfig struct {
	Command        string   `yaml:"command" validate:"required"`
	Args           []string `yaml:"args,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty" validate:"omitempty,min=1"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string   `yaml:"addr,omitempty"`
	AllowedOrigins    []string `yaml:"allowedOrigins,omitempty" validate:"dive,required"`
	RequestsPerSecond float64  `yaml:"requestsPerSecond,omitempty" validate:"omitempty,gt=0"`
	Burst             int      `yaml:"burst,omitempty" validate:"omitempty,min=1"`
}

// Config represents the application configuration
type Config struct {
	Store                string                `yaml:"store" validate:"required,oneof=postgres memory"`
	DatabaseURL          string                `yaml:"databaseURL,omitempty" validate:"required_if=Store postgres"`
	Timezone             string                `yaml:"timezone,omitempty"`
	LeaveQuota           int                   `yaml:"leaveQuota,omitempty" validate:"omitempty,min=1"`
	Solver               SolverConfig          `yaml:"solver"`
	RequirementOverrides []RequirementOverride `yaml:"requirementOverrides,omitempty" validate:"dive"`
	Server               ServerConfig          `yaml:"server,omitempty"`
	WorkerSheetID        string                `yaml:"workerSheetID,omitempty"`
	WorkerTab            string                `yaml:"workerTab,omitempty" validate:"required_with=WorkerSheetID"`
	RosterSheetID        string                `yaml:"rosterSheetID,omitempty"`
	GmailSender          string                `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates roster_config.<env>.yaml.
// It looks for the file in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile("roster_config." + env + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, rrule syntax and timezone
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.RequirementOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in requirementOverrides[%d]: %w", i, err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}

	return nil
}

// Location returns the reference timezone for calendar days, UTC when unset
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Quota returns the daily approved leave quota
func (c *Config) Quota() int {
	if c.LeaveQuota <= 0 {
		return leaveguard.DefaultDailyQuota
	}
	return c.LeaveQuota
}

// SolverClientConfig converts the solver section for solverclient.NewClient
func (c *Config) SolverClientConfig() solverclient.Config {
	return solverclient.Config{
		Command: c.Solver.Command,
		Args:    c.Solver.Args,
		Timeout: time.Duration(c.Solver.TimeoutSeconds) * time.Second,
	}
}

// OverrideLocation returns the override's location as a model value
func (o RequirementOverride) OverrideLocation() model.Location {
	return model.Location(o.Location)
}

// findFile searches for name in the current directory and then the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
