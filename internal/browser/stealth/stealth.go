package stealth

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"github.com/xkilldash9x/surveypilot/api/schemas"
	"go.uber.org/zap"
)

//go:embed evasions.js
var evasionsScript string

// personaBootstrap exposes the persona to the evasions script before it runs.
func personaBootstrap(p schemas.Persona) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding persona: %w", err)
	}
	return fmt.Sprintf("window.__spPersona = %s;", b), nil
}

// Script returns the full document-start script for a persona.
func Script(p schemas.Persona) (string, error) {
	boot, err := personaBootstrap(p)
	if err != nil {
		return "", err
	}
	return boot + "\n" + evasionsScript, nil
}

// Apply constructs the CDP actions that make an automated Chrome tab present itself as an ordinary
// French desktop browser.
func Apply(p schemas.Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser stealth persona",
		zap.String("userAgent", p.UserAgent),
		zap.String("platform", p.Platform),
		zap.String("locale", p.Locale),
	)

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(p.UserAgent).
			WithPlatform(p.Platform).
			WithAcceptLanguage(p.AcceptLanguage()),

		// AddScriptToEvaluateOnNewDocument returns an identifier as well, hence the wrapper.
		chromedp.ActionFunc(func(ctx context.Context) error {
			script, err := Script(p)
			if err != nil {
				return err
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}

	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if lang := p.AcceptLanguage(); lang != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": lang}))
	}
	if p.Width > 0 && p.Height > 0 {
		tasks = append(tasks, chromedp.EmulateViewport(p.Width, p.Height))
	}
	return tasks
}
