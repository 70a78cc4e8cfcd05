package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Endpoint  string `json:"endpoint"`
	User      string `json:"user"`
	Password  string `json:"password"`
	LogLevel  string `json:"log_level"`
	ChunkSize string `json:"chunk_size"`
	Thread    int    `json:"thread"`
	Timeout   int64  `json:"timeout"`
	CacheDir  string `json:"cache_dir"`
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		LogLevel:  "info",
		ChunkSize: "10MiB",
		Thread:    4,
		Timeout:   600,
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal file:%w", err)
	}
	return c, nil
}
