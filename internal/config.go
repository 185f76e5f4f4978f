package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

// NovaSqlConfig is the on-disk YAML shape, loaded through viper the same
// way the teacher's config layer did.
type NovaSqlConfig struct {
	Storage struct {
		DataDir         string `mapstructure:"data_dir"`
		BufferPoolPages int    `mapstructure:"buffer_pool_pages"`
		CatalogCacheCap int    `mapstructure:"catalog_cache_cap"`
	} `mapstructure:"storage"`
	Server struct {
		Port  int  `mapstructure:"port"`
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"server"`
}

func LoadConfig(path string) (*NovaSqlConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.buffer_pool_pages", 64)
	v.SetDefault("storage.catalog_cache_cap", 64)
	v.SetDefault("server.port", 6543)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg NovaSqlConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
