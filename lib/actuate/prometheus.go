package actuate

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

// PrometheusEndpoint renders a gatherer in the prometheus text exposition
// format.
type PrometheusEndpoint struct {
	gatherer prometheus.Gatherer
}

func NewPrometheusEndpoint(gatherer prometheus.Gatherer) *PrometheusEndpoint {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &PrometheusEndpoint{gatherer: gatherer}
}

func (p *PrometheusEndpoint) Scrape(ctx convCtx.Context) (text string, err error) {
	ctx = ctx.WithScope("PrometheusEndpoint.Scrape")
	defer ctx.Exit(&err)

	families, err := p.gatherer.Gather()
	if err != nil {
		return
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		err = enc.Encode(mf)
		if err != nil {
			return
		}
	}

	text = buf.String()
	return
}

func (p *PrometheusEndpoint) Endpoint() endpoint.Definition {
	return endpoint.Define(IDPrometheus,
		endpoint.Read("scrape", func(ctx convCtx.Context, _ endpoint.Arguments) (any, error) {
			text, err := p.Scrape(ctx)
			if err != nil {
				return nil, err
			}
			return endpoint.Response{ContentType: string(expfmt.NewFormat(expfmt.TypeTextPlain)), Body: text}, nil
		}),
	)
}
