// Package notification sends hotspot alerts through shoutrrr service URLs.
package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

const (
	serviceName    = "shoutrrr"
	defaultTimeout = 10 * time.Second
)

// sender is the part of the shoutrrr router used here.
type sender interface {
	Send(message string, params *stypes.Params) []error
}

// HotspotNotifier alerts when a location accumulates too many items.
type HotspotNotifier struct {
	sender  sender
	schemes []string
	metrics *metrics.NotificationMetrics
	log     logger.Logger
}

// NewHotspotNotifier builds one shoutrrr router for every configured URL.
func NewHotspotNotifier(settings *conf.NotificationSettings, m *metrics.NotificationMetrics) (*HotspotNotifier, error) {
	urls := slices.DeleteFunc(slices.Clone(settings.URLs), func(u string) bool {
		return strings.TrimSpace(u) == ""
	})
	if len(urls) == 0 {
		return nil, errors.Newf("at least one notification URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// shoutrrr errors may echo the URL, which carries credentials
		return nil, errors.Newf("invalid notification URL: %s", redact(err.Error(), urls)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	router.Timeout = defaultTimeout
	router.SetLogger(log.New(io.Discard, "", 0))

	return &HotspotNotifier{
		sender:  router,
		schemes: schemes(urls),
		metrics: m,
		log:     logger.Global().Module("notification"),
	}, nil
}

// Services returns the scheme of every configured URL, e.g. "discord".
func (n *HotspotNotifier) Services() []string {
	return slices.Clone(n.schemes)
}

// NotifyHotspot sends the alert for location. The first delivery error is returned.
func (n *HotspotNotifier) NotifyHotspot(ctx context.Context, location string, items, threshold int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	params.SetTitle("Litter hotspot: " + location)
	message := FormatHotspotMessage(location, items, threshold)

	start := time.Now()
	var firstErr error
	for _, err := range n.sender.Send(message, &params) {
		if err != nil {
			firstErr = err
			break
		}
	}
	if n.metrics != nil {
		n.metrics.RecordDelivery(serviceName, time.Since(start), firstErr)
	}
	if firstErr != nil {
		return errors.Newf("alert delivery failed: %s", firstErr.Error()).
			Component("notification").
			Category(errors.CategoryNotification).
			Context("services", strings.Join(n.schemes, ",")).
			Build()
	}

	n.log.Info("hotspot alert sent",
		logger.String("location", location),
		logger.Int("items", items),
		logger.Int("threshold", threshold))
	return nil
}

// FormatHotspotMessage renders the alert body.
func FormatHotspotMessage(location string, items, threshold int) string {
	return fmt.Sprintf("%s has reached %d detected litter items (alert threshold %d). Consider scheduling a cleanup.",
		location, items, threshold)
}

func schemes(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
			out = append(out, u.Scheme)
		} else {
			out = append(out, "unknown")
		}
	}
	return out
}

// redact replaces every configured URL in msg with its scheme.
func redact(msg string, urls []string) string {
	for i, raw := range urls {
		msg = strings.ReplaceAll(msg, raw, schemes(urls[i : i+1])[0]+"://***")
	}
	return msg
}
