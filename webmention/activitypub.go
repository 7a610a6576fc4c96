package webmention

import (
	"context"
	"errors"
	"net/http"

	"github.com/fedbridge/fedbridge/internal/ap"
	"github.com/fedbridge/fedbridge/internal/as1"
	"github.com/fedbridge/fedbridge/internal/fetch"
	"github.com/fedbridge/fedbridge/internal/group"
	"github.com/fedbridge/fedbridge/internal/httpx"
	"github.com/fedbridge/fedbridge/models"
	"golang.org/x/exp/slog"
)

// job is one planned inbox delivery.
type job struct {
	// target is the remote URL the delivery is keyed on: the mentioned
	// post, or the inbox itself for follower fan-out.
	target string
	inbox  string
	// object is the AS2 object fetched from the target, if the target was
	// a post.
	object map[string]any
}

// diverted is a target that served plain HTML instead of ActivityPub. Salmon
// picks one up when nothing else can receive the activity.
type diverted struct {
	target string
	resp   *fetch.Response
}

// result is the outcome of a delivery run. resp is the last successful
// delivery's response, nil when nothing was delivered.
type result struct {
	resp      *fetch.Response
	delivered int
	skipped   int
}

// deliver sends the mention's activity out. Each mentioned post that speaks
// ActivityPub gets the activity in its inbox. A mention that addresses no
// post at all is fanned out to the source domain's followers instead. When
// every mentioned post turned out to be plain HTML, delivery falls back to
// salmon, once.
func (m *mention) deliver(ctx context.Context) (*result, error) {
	res := &result{}
	targets := m.targets()

	var jobs []job
	var htmlTargets []diverted
	for _, target := range targets {
		resp, obj, err := m.client.Fetch(ctx, target)
		switch {
		case errors.Is(err, ap.ErrNotActivityPub):
			m.log.Info("target is not activitypub", slog.String("target", target))
			htmlTargets = append(htmlTargets, diverted{target: target, resp: resp})
			continue
		case err != nil:
			return nil, translate(err)
		}
		inbox, err := m.inboxFor(ctx, obj)
		if err != nil {
			return nil, translate(err)
		}
		if inbox == "" {
			m.log.Info("target has no inbox, skipping", slog.String("target", target))
			res.skipped++
			continue
		}
		jobs = append(jobs, job{target: target, inbox: inbox, object: obj})
	}

	// followers only hear about posts that address nobody in particular
	if len(targets) == 0 {
		inboxes, err := models.NewFollowers(m.env.DB).ActiveInboxes(m.domain)
		if err != nil {
			return nil, err
		}
		for _, inbox := range inboxes {
			jobs = append(jobs, job{target: inbox, inbox: inbox})
		}
	}

	if len(jobs) == 0 && len(htmlTargets) > 0 {
		first := htmlTargets[0]
		m.log.Info("no activitypub targets, trying salmon", slog.String("target", first.target))
		resp, err := m.deliverSalmon(ctx, first.target, first.resp)
		if err != nil {
			return nil, err
		}
		res.resp = resp
		res.delivered++
		res.skipped += len(htmlTargets) - 1
		return res, nil
	}
	res.skipped += len(htmlTargets)

	if len(jobs) == 0 {
		return res, nil
	}

	activity := as1.ToAS2(m.obj, m.env.BaseURL+"/"+m.domain)

	deliveries := models.NewDeliveries(m.env.DB)
	rows := make([]*models.Delivery, len(jobs))
	resps := make([]*fetch.Response, len(jobs))
	errs := make([]error, len(jobs))

	g := group.New(ctx)
	for i, j := range jobs {
		row, err := deliveries.GetOrCreate(&models.Delivery{
			Source:    m.source,
			Target:    j.target,
			Direction: models.DirectionOut,
			Protocol:  models.ProtocolActivityPub,
		})
		if err != nil {
			return nil, err
		}
		rows[i] = row

		out := activity
		if row.Complete() {
			// the first delivery went through; this is an edit
			out = asUpdate(activity)
		}
		i, j := i, j
		g.Add(func(ctx context.Context) error {
			m.log.Info("delivering", slog.String("inbox", j.inbox), slog.String("type", out["type"].(string)))
			resps[i], errs[i] = m.client.Deliver(ctx, j.inbox, out)
			return errs[i]
		})
	}
	g.Wait()

	var lastErr error
	for i, row := range rows {
		row.SourceEntry = m.entry
		row.TargetObject = jobs[i].object
		if errs[i] == nil {
			row.Status = models.DeliveryStatusComplete
			res.delivered++
			res.resp = resps[i]
		} else {
			row.Status = models.DeliveryStatusError
			lastErr = errs[i]
		}
		if err := deliveries.Update(row); err != nil {
			return nil, err
		}
	}
	// one delivery getting through is a success; surface the failure only
	// when none did
	if res.resp == nil && lastErr != nil {
		return nil, translate(lastErr)
	}
	return res, nil
}

// inboxFor finds the inbox an activity addressed to the given object should
// be delivered to: the object's own inbox, or its actor's. An actor given as
// a bare URL is fetched.
func (m *mention) inboxFor(ctx context.Context, obj map[string]any) (string, error) {
	if inbox, ok := obj["inbox"].(string); ok && inbox != "" {
		return inbox, nil
	}
	for _, field := range []string{"actor", "attributedTo"} {
		switch actor := obj[field].(type) {
		case map[string]any:
			if inbox, ok := actor["inbox"].(string); ok && inbox != "" {
				return inbox, nil
			}
		case string:
			if actor == "" {
				continue
			}
			_, doc, err := m.client.Fetch(ctx, actor)
			if errors.Is(err, ap.ErrNotActivityPub) {
				continue
			}
			if err != nil {
				return "", err
			}
			if inbox, ok := doc["inbox"].(string); ok && inbox != "" {
				return inbox, nil
			}
		}
	}
	return "", nil
}

func asUpdate(activity map[string]any) map[string]any {
	update := make(map[string]any, len(activity))
	for k, v := range activity {
		update[k] = v
	}
	update["type"] = "Update"
	if id, ok := activity["id"].(string); ok && id != "" {
		update["id"] = id + "-update"
	}
	return update
}

// translate maps a remote failure to the HTTP status the webmention response
// carries: remote rejections keep their status, everything else is a bad
// gateway.
func translate(err error) error {
	if apErr := new(ap.Error); errors.As(err, &apErr) {
		return httpx.Error(apErr.StatusCode, err)
	}
	if se := new(httpx.StatusError); errors.As(err, &se) {
		return err
	}
	return httpx.Error(http.StatusBadGateway, err)
}
