package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// navTimeout bounds a headless-browser navigation. A timeout is a terminal
// failure for the request, not retried.
const navTimeout = 30 * time.Second

// settleDelay gives dynamic content a fixed window to render after the load
// event before the DOM is captured.
const settleDelay = 3 * time.Second

// Render fetches a URL through a headless browser and parses the rendered
// DOM. The browser session lives exactly as long as this call: launch,
// navigate, capture, close. Callers should treat renders as expensive and
// serialized -- there is no session pooling, and concurrent renders against
// the same target need external rate-limiting.
func Render(ctx context.Context, url string) (*Result, error) {
	binPath, _ := launcher.LookPath()
	l := launcher.New().Bin(binPath).Headless(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &Error{URL: url, Err: err, Hint: "no usable browser binary found"}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, &Error{URL: url, Err: err, Hint: "failed to attach to the headless browser"}
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close browser session")
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: 1920, Height: 1080, DeviceScaleFactor: 1,
	}); err != nil {
		logrus.WithError(err).Debug("viewport setup failed, continuing")
	}

	timed := page.Timeout(navTimeout)
	if err := timed.Navigate(url); err != nil {
		return nil, &Error{URL: url, Err: err, Hint: "navigation failed; the site may block headless browsers"}
	}
	if err := timed.WaitLoad(); err != nil {
		return nil, &Error{URL: url, Err: err, Hint: "page did not finish loading within the navigation timeout"}
	}

	// Fixed settle window for late-rendering content.
	select {
	case <-ctx.Done():
		return nil, &Error{URL: url, Err: ctx.Err()}
	case <-time.After(settleDelay):
	}

	resolved := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		resolved = info.URL
	}

	rendered, err := page.HTML()
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"url":      url,
		"resolved": resolved,
		"bytes":    len(rendered),
	}).Debug("rendered page")

	return &Result{
		Doc:           doc,
		RequestedURL:  url,
		ResolvedURL:   resolved,
		ExtractionURL: ChooseExtractionURL(url, resolved),
	}, nil
}
