// internal/app/bootstrap/services.go
package bootstrap

import (
	"github.com/dalemusser/linguashift/internal/app/features/clarity"
	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/app/system/rewrite"
	"go.uber.org/zap"
)

// buildDetector selects the remote detection service when a URL is
// configured, else the built-in heuristic. The Redis cache wraps either.
func buildDetector(appCfg AppConfig, deps DBDeps, logger *zap.Logger) jargon.Detector {
	var det jargon.Detector
	if appCfg.DetectorURL != "" {
		det = jargon.NewRemoteDetector(jargon.RemoteConfig{
			BaseURL:           appCfg.DetectorURL,
			Timeout:           appCfg.DetectorTimeout,
			RequestsPerSecond: appCfg.DetectorRPS,
			Burst:             appCfg.DetectorBurst,
		}, logger.Named("detector"))
	} else {
		det = jargon.NewHeuristicDetector(nil)
	}
	if deps.Redis != nil {
		det = jargon.NewCachedDetector(det, deps.Redis, appCfg.AnnotationCacheTTL, logger.Named("annotation-cache"))
	}
	return det
}

// buildRewriter returns nil when no API key is configured; the rewrite
// endpoint then answers 503.
func buildRewriter(appCfg AppConfig, logger *zap.Logger) (clarity.Rewriter, error) {
	if appCfg.OpenAIAPIKey == "" {
		logger.Info("rewrite disabled: no openai_api_key configured")
		return nil, nil
	}
	gen, err := rewrite.NewOpenAIGenerator(rewrite.OpenAIConfig{
		APIKey:      appCfg.OpenAIAPIKey,
		BaseURL:     appCfg.OpenAIBaseURL,
		Model:       appCfg.OpenAIModel,
		Temperature: appCfg.OpenAITemperature,
	})
	if err != nil {
		return nil, err
	}
	return rewrite.NewComposer(gen, appCfg.RewriteTimeout, logger.Named("rewrite")), nil
}
