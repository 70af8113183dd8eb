package fetch

import (
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// minorRedirectDelta is the path-length difference below which a same-host
// redirect still counts as the page the user asked for (trailing slash,
// locale suffix and the like). The record's source_url depends on this
// number, so it must not drift.
const minorRedirectDelta = 2

// ChooseExtractionURL decides which URL gets stamped on every extracted
// record after navigation possibly redirected. A host change always keeps
// the originally requested URL -- the user's intent wins over wherever the
// site bounced us. A same-host path change is accepted only when it is
// minor; a major redirect again falls back to the requested URL.
func ChooseExtractionURL(requested, resolved string) string {
	if resolved == "" || resolved == requested {
		return requested
	}

	reqURL, err := url.Parse(requested)
	if err != nil {
		return requested
	}
	resURL, err := url.Parse(resolved)
	if err != nil {
		return requested
	}

	if reqURL.Hostname() != resURL.Hostname() {
		logrus.WithFields(logrus.Fields{
			"requested": reqURL.Hostname(),
			"resolved":  resURL.Hostname(),
		}).Warn("navigation changed host, keeping requested URL")
		return requested
	}

	if reqURL.Path == resURL.Path || strings.Contains(resolved, reqURL.Path) {
		return resolved
	}

	delta := len(reqURL.Path) - len(resURL.Path)
	if delta < 0 {
		delta = -delta
	}
	if delta <= minorRedirectDelta {
		logrus.WithFields(logrus.Fields{
			"requested": reqURL.Path,
			"resolved":  resURL.Path,
		}).Info("minor redirect, using resolved URL")
		return resolved
	}

	logrus.WithFields(logrus.Fields{
		"requested": reqURL.Path,
		"resolved":  resURL.Path,
	}).Warn("major redirect, keeping requested URL")
	return requested
}
