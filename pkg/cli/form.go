package cli

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
)

// form field names, shared with templates/home.html
const (
	fieldListeningTime = "listening_time"
	fieldSongsPlayed   = "songs_played"
	fieldSkipRate      = "skip_rate"
	fieldAdsPerWeek    = "ads_per_week"
	fieldOffline       = "offline_listening"
	fieldSubscription  = "subscription_type"
	fieldDevice        = "device_type"
)

// parseRequest reads the calculate form. The returned request always holds
// every field that parsed so the controls can be re-rendered with them;
// fields that did not parse keep their defaults.
func parseRequest(r *http.Request) (features.Request, error) {
	req := features.DefaultRequest()
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: %v", features.ErrInvalidRequest, err)
	}

	var errs []string
	intField := func(name string, dst *int) {
		v, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get(name)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not an integer", name))
			return
		}
		*dst = v
	}

	intField(fieldListeningTime, &req.ListeningTime)
	intField(fieldSongsPlayed, &req.SongsPlayed)
	intField(fieldAdsPerWeek, &req.AdsPerWeek)

	if v, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get(fieldSkipRate)), 64); err != nil {
		errs = append(errs, fmt.Sprintf("%s: not a number", fieldSkipRate))
	} else {
		req.SkipRate = v
	}

	if o, err := features.ParseOffline(r.PostForm.Get(fieldOffline)); err != nil {
		errs = append(errs, fmt.Sprintf("%s: unknown value", fieldOffline))
	} else {
		req.OfflineListening = o
	}

	if s, err := features.ParseSubscription(r.PostForm.Get(fieldSubscription)); err != nil {
		errs = append(errs, fmt.Sprintf("%s: unknown value", fieldSubscription))
	} else {
		req.Subscription = s
	}

	if d, err := features.ParseDevice(r.PostForm.Get(fieldDevice)); err != nil {
		errs = append(errs, fmt.Sprintf("%s: unknown value", fieldDevice))
	} else {
		req.Device = d
	}

	if len(errs) > 0 {
		return req, fmt.Errorf("%w: %s", features.ErrInvalidRequest, strings.Join(errs, "; "))
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
