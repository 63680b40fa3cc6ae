package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RBaltar/InvestAi/internal/pipelineconfig"
	"github.com/RBaltar/InvestAi/pkg/config"
)

// configCmd inspects the forecast pipeline YAML (no database needed)
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "파이프라인 설정 확인",
	Long: `pipeline.yaml 을 검증하고 기본값이 적용된 최종 설정을 출력합니다.

Example:
  go run ./cmd/investai config validate
  go run ./cmd/investai config show --pipeline config/pipeline.yaml`,
}

var (
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "적용될 설정 출력",
		RunE:  runConfigShow,
	}

	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "설정 검증",
		RunE:  runConfigValidate,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func pipelinePath() string {
	if pipelineFile != "" {
		return pipelineFile
	}
	// DATABASE_URL 이 없으면 config.Load 가 실패하므로 기본 경로 사용
	if cfg, err := config.Load(); err == nil {
		return cfg.PipelineConfigPath
	}
	return "config/pipeline.yaml"
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := pipelineconfig.Load(pipelinePath())
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := pipelinePath()
	cfg, raw, err := pipelineconfig.Load(path)
	if err != nil {
		return fmt.Errorf("❌ %s: %w", path, err)
	}

	snap, err := pipelineconfig.NewSnapshot(cfg)
	if err != nil {
		return err
	}

	if raw == nil {
		fmt.Printf("⚠️  %s not found, defaults apply\n", path)
	}
	fmt.Printf("✅ %s valid (name=%s hash=%s)\n", path, snap.ConfigName, snap.ConfigHash[:12])
	return nil
}
