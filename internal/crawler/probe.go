package crawler

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/schema"
	"go-zhipin-automation/internal/zhipin"
)

// Probe is the lightweight unauthenticated detail fetch tried before the
// browser persona is involved. ok is false whenever the response cannot
// be used, for any reason; the caller falls back to the browser.
type Probe interface {
	Probe(ctx context.Context, securityID string) (map[string]any, bool)
}

type httpProbe struct {
	client *resty.Client
}

// NewHTTPProbe builds the anonymous HTTP probe.
func NewHTTPProbe() Probe {
	client := resty.New().
		SetTimeout(zhipin.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36").
		SetHeader("Referer", zhipin.BaseURL)
	return &httpProbe{client: client}
}

func (p *httpProbe) Probe(ctx context.Context, securityID string) (map[string]any, bool) {
	resp, err := p.client.R().
		SetContext(ctx).
		Get(zhipin.DetailProbeURL(securityID))
	if err != nil || resp.StatusCode() != 200 {
		return nil, false
	}
	body := resp.Body()
	if gjson.GetBytes(body, "message").String() != "Success" {
		return nil, false
	}
	data := gjson.GetBytes(body, "zpData")
	if !data.Exists() || !schema.ValidDetailRaw([]byte(data.Raw)) {
		return nil, false
	}
	var detail map[string]any
	if err := json.Unmarshal([]byte(data.Raw), &detail); err != nil {
		logger.WithError(err).Debugf("probe payload unparseable")
		return nil, false
	}
	return detail, true
}
