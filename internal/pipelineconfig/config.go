package pipelineconfig

import (
	"strings"
	"time"

	"github.com/RBaltar/InvestAi/internal/contracts"
	"github.com/RBaltar/InvestAi/internal/forecast"
)

// Config 예측 파이프라인 설정 파일 (config/pipeline.yaml)
// ⭐ SSOT: 파이프라인/모델 하이퍼파라미터는 여기서만
type Config struct {
	Meta     Meta           `yaml:"meta" json:"meta"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
	Model    ModelConfig    `yaml:"model" json:"model"`
}

// Meta 설정 식별 정보
type Meta struct {
	Name string `yaml:"name" json:"name" default:"ibovespa_lstm" validate:"required"`
}

// PipelineConfig 오케스트레이터 설정
type PipelineConfig struct {
	Lookback int    `yaml:"lookback" json:"lookback" default:"60" validate:"gte=2"`
	Horizon  int    `yaml:"horizon" json:"horizon" default:"10" validate:"gte=1"`
	Mode     string `yaml:"mode" json:"mode" default:"same_window" validate:"oneof=same_window autoregressive last_windows"`
	Workers  int    `yaml:"workers" json:"workers" default:"1" validate:"gte=1,lte=64"`
	// Tickers 비어 있으면 저장소에서 discover
	Tickers []string `yaml:"tickers" json:"tickers" validate:"omitempty,dive,required"`
}

// ModelConfig LSTM 하이퍼파라미터
type ModelConfig struct {
	Hidden1      int     `yaml:"hidden1" json:"hidden1" default:"50" validate:"gte=1"`
	Hidden2      int     `yaml:"hidden2" json:"hidden2" default:"50" validate:"gte=1"`
	DenseUnits   int     `yaml:"dense_units" json:"dense_units" default:"25" validate:"gte=1"`
	Dropout      float64 `yaml:"dropout" json:"dropout" default:"0.2" validate:"gte=0,lt=1"`
	Epochs       int     `yaml:"epochs" json:"epochs" default:"50" validate:"gte=1"`
	BatchSize    int     `yaml:"batch_size" json:"batch_size" default:"32" validate:"gte=1"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate" default:"0.001" validate:"gt=0,lte=1"`
	ClipNorm     float64 `yaml:"clip_norm" json:"clip_norm" default:"1.0" validate:"gte=0"`
	// Seed 0 이면 실행마다 다른 시드
	Seed int64 `yaml:"seed" json:"seed" default:"42"`
}

// ToPipelineConfig forecast.Pipeline 설정으로 변환
func (c *Config) ToPipelineConfig() forecast.PipelineConfig {
	tickers := make([]string, 0, len(c.Pipeline.Tickers))
	for _, t := range c.Pipeline.Tickers {
		tickers = append(tickers, strings.ToUpper(strings.TrimSpace(t)))
	}
	return forecast.PipelineConfig{
		Lookback: c.Pipeline.Lookback,
		Horizon:  c.Pipeline.Horizon,
		Mode:     contracts.ForecastMode(c.Pipeline.Mode),
		Workers:  c.Pipeline.Workers,
		Tickers:  tickers,
	}
}

// ToLSTMConfig forecast.LSTMConfig 로 변환
func (c *Config) ToLSTMConfig() forecast.LSTMConfig {
	return forecast.LSTMConfig{
		Hidden1:      c.Model.Hidden1,
		Hidden2:      c.Model.Hidden2,
		DenseUnits:   c.Model.DenseUnits,
		Dropout:      c.Model.Dropout,
		Epochs:       c.Model.Epochs,
		BatchSize:    c.Model.BatchSize,
		LearningRate: c.Model.LearningRate,
		ClipNorm:     c.Model.ClipNorm,
		Seed:         c.Model.Seed,
	}
}

// Snapshot 실행 기록용 설정 스냅샷
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigName string    `json:"config_name"`
	CreatedAt  time.Time `json:"created_at"`
}
