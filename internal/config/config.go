package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取主配置：先深度优先展开 include 链并按序合并（被包含者在前，
// 主文件最后生效），再记录显式写过的键、应用默认值、做基础校验。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	files, err := expandIncludes(abs, nil)
	if err != nil {
		return nil, err
	}

	merged := viper.New()
	merged.SetConfigType("yaml")
	for _, file := range files {
		v := viper.New()
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
		if err := merged.MergeConfigMap(v.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging config failed (%s): %w", file, err)
		}
	}

	var cfg Config
	if err := merged.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	// 显式写过 false/0 的键不能被默认值覆盖
	set := make(keySet)
	for _, key := range merged.AllKeys() {
		set.mark(key)
	}
	cfg.applyDefaults(set)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandIncludes 展开一个文件的 include 链，返回按合并顺序排列的路径。
// trail 是当前递归路径，用于拦截 include 环。
func expandIncludes(path string, trail []string) ([]string, error) {
	path = filepath.Clean(path)
	for _, visited := range trail {
		if visited == path {
			return nil, fmt.Errorf("include cycle detected: %s", path)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}

	trail = append(trail, path)
	dir := filepath.Dir(path)
	var files []string
	for _, inc := range v.GetStringSlice("include") {
		inc = strings.TrimSpace(inc)
		if inc == "" {
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(dir, inc)
		}
		sub, err := expandIncludes(inc, trail)
		if err != nil {
			return nil, err
		}
		files = append(files, sub...)
	}
	return append(files, path), nil
}
