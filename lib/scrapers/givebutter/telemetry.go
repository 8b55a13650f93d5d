package givebutter

import (
	"butterdish-backend/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/givebutter")

// resty hooks stack, so the clients are recreated rather than
// instrumented a second time
func (c *Client) SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	c.page = newPageClient()
	restyutil.InstrumentClient(c.page, tracer, out)
	c.feed = newFeedClient()
	restyutil.InstrumentClient(c.feed, tracer, out)
}
