// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlaceholderCover путь-заглушка для треков без обложки
const PlaceholderCover = "placeholder.png"

// Config структура для хранения конфигурации приложения
type Config struct {
	LibraryDir string `yaml:"library_dir"`
	LogPath    string `yaml:"log_path"`
	Debug      bool   `yaml:"debug"`

	// Необязательный текстовый сервис с описаниями треков
	InsightAPIKey  string `yaml:"insight_api_key"`
	InsightModel   string `yaml:"insight_model"`
	InsightBaseURL string `yaml:"insight_base_url"`

	// Необязательная выгрузка библиотеки в S3
	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не ошибка: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	if config.LibraryDir == "" {
		config.LibraryDir = "~/.taraneem"
	}
	config.LibraryDir = strings.Replace(config.LibraryDir, "~", home, 1)

	if config.LogPath == "" {
		config.LogPath = filepath.Join(config.LibraryDir, "taraneem.log")
	}
	config.LogPath = strings.Replace(config.LogPath, "~", home, 1)

	return config, nil
}

// PlaceholderCoverPath возвращает путь заглушки обложки внутри библиотеки
func (c *Config) PlaceholderCoverPath() string {
	return filepath.Join(c.LibraryDir, PlaceholderCover)
}
