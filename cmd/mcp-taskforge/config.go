package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "MCPTF"

type Config struct {
	TaskForgeAddr string `envconfig:"TASKFORGE_ADDR" default:"http://localhost:3100"`
	APIKey        string `envconfig:"API_KEY" required:"true"`
	Actor         string `envconfig:"ACTOR" default:"mcp"`
}

func NewConfig() (*Config, error) {
	c := &Config{}
	err := envconfig.Process(envPrefix, c)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	return c, nil
}
